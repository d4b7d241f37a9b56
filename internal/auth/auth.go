// Package auth decides which chat users may talk to the assistant.
package auth

import (
	"sort"
	"sync"
)

type User struct {
	ID       int64
	Username string
}

type Service struct {
	mu      sync.RWMutex
	allowed map[int64]User
}

func New(initial []int64) *Service {
	s := &Service{allowed: make(map[int64]User, len(initial))}
	for _, id := range initial {
		s.allowed[id] = User{ID: id}
	}
	return s
}

func (s *Service) IsAllowed(userID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.allowed[userID]
	return ok
}

// Remember records the username of an allowed user the first time it is seen.
func (s *Service) Remember(user User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.allowed[user.ID]; ok && u.Username == "" {
		s.allowed[user.ID] = user
	}
}

func (s *Service) Allow(user User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.allowed[user.ID] = user
}

func (s *Service) Remove(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.allowed, userID)
}

// List returns allowed users ordered by id.
func (s *Service) List() []User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]User, 0, len(s.allowed))
	for _, u := range s.allowed {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
