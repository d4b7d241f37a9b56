package voice

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"presence-agent/internal/auth"
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type botAPISender struct{ api *tgbotapi.BotAPI }

func (s botAPISender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	return s.api.Send(c)
}

// Telegram turns chat messages into transcripts and speech into messages.
// Only users on the allowlist are heard.
type Telegram struct {
	api     *tgbotapi.BotAPI
	s       sender
	authSvc *auth.Service
	mixer   *SoftMixer
	logger  *zap.Logger
	lines   chan string

	mu     sync.Mutex
	chatID int64
}

// NewTelegram connects to the bot API. A zero chatID is bound to the first
// allowed chat that writes in.
func NewTelegram(token string, chatID int64, authSvc *auth.Service, mixer *SoftMixer, logger *zap.Logger) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	t := newTelegram(botAPISender{api: api}, chatID, authSvc, mixer, logger)
	t.api = api
	return t, nil
}

func newTelegram(s sender, chatID int64, authSvc *auth.Service, mixer *SoftMixer, logger *zap.Logger) *Telegram {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Telegram{
		s:       s,
		authSvc: authSvc,
		mixer:   mixer,
		logger:  logger,
		lines:   make(chan string, 16),
		chatID:  chatID,
	}
}

// Start polls for updates until ctx is cancelled.
func (t *Telegram) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := t.api.GetUpdatesChan(u)
	go func() {
		<-ctx.Done()
		t.api.StopReceivingUpdates()
	}()
	go t.consume(ctx, updates)
}

func (t *Telegram) consume(ctx context.Context, updates <-chan tgbotapi.Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message != nil {
				t.handleIncomingMessage(update.Message)
			}
		}
	}
}

func (t *Telegram) handleIncomingMessage(msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	if !t.authSvc.IsAllowed(msg.From.ID) {
		t.logger.Warn("unauthorized message", zap.Int64("user_id", msg.From.ID), zap.String("username", msg.From.UserName))
		t.send(msg.Chat.ID, "Sorry, I only talk to people I know.")
		return
	}
	t.authSvc.Remember(auth.User{ID: msg.From.ID, Username: msg.From.UserName})

	t.mu.Lock()
	if t.chatID == 0 {
		t.chatID = msg.Chat.ID
		t.logger.Info("bound to chat", zap.Int64("chat_id", msg.Chat.ID))
	}
	bound := t.chatID
	t.mu.Unlock()
	if msg.Chat.ID != bound {
		t.logger.Debug("message from another chat ignored", zap.Int64("chat_id", msg.Chat.ID))
		return
	}

	if msg.Voice != nil {
		t.send(bound, "I can only read text here.")
		return
	}
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}
	select {
	case t.lines <- text:
	default:
		t.logger.Warn("input queue full, dropping message")
	}
}

func (t *Telegram) Listen(ctx context.Context, max time.Duration) (string, error) {
	return listenOn(ctx, t.lines, max)
}

func (t *Telegram) Speak(_ context.Context, text string) error {
	if t.mixer != nil && t.mixer.Muted() {
		return nil
	}
	t.mu.Lock()
	chatID := t.chatID
	t.mu.Unlock()
	if chatID == 0 {
		return fmt.Errorf("%w: no chat bound yet", ErrUnavailable)
	}
	if err := t.send(chatID, text); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (t *Telegram) send(chatID int64, text string) error {
	_, err := t.s.Send(tgbotapi.NewMessage(chatID, text))
	if err != nil {
		t.logger.Warn("telegram send failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
	return err
}
