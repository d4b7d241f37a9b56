package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"presence-agent/internal/config"
)

type fakeLLM struct {
	reply string
	err   error
	calls [][]Message
}

func (f *fakeLLM) Generate(_ context.Context, msgs []Message) (Response, error) {
	f.calls = append(f.calls, msgs)
	if f.err != nil {
		return Response{}, f.err
	}
	return Response{Content: f.reply}, nil
}

func TestReplier_SelectsClientByMode(t *testing.T) {
	fast := &fakeLLM{reply: "fast answer"}
	deep := &fakeLLM{reply: "deep\nanswer"}
	r := NewReplier(fast, deep, 0)
	hist := []Message{{Role: "user", Content: "earlier"}}

	got, err := r.Reply(context.Background(), "sys", hist, "  question ", ModeFast)
	require.NoError(t, err)
	assert.Equal(t, "fast answer", got)
	require.Len(t, fast.calls, 1)
	assert.Equal(t, []Message{
		{Role: "system", Content: "sys"},
		{Role: "user", Content: "earlier"},
		{Role: "user", Content: "question"},
	}, fast.calls[0])

	got, err = r.Reply(context.Background(), "sys", nil, "q", ModeDeep)
	require.NoError(t, err)
	assert.Equal(t, "deep answer", got)
	assert.Len(t, deep.calls, 1)
}

func TestReplier_Failures(t *testing.T) {
	r := NewReplier(&fakeLLM{err: ErrUnavailable}, nil, 0)
	_, err := r.Reply(context.Background(), "", nil, "q", ModeDeep)
	assert.ErrorIs(t, err, ErrUnavailable)

	r = NewReplier(&fakeLLM{reply: "   "}, nil, 0)
	_, err = r.Reply(context.Background(), "", nil, "q", ModeFast)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestReplier_RateLimited(t *testing.T) {
	fast := &fakeLLM{reply: "ok"}
	r := NewReplier(fast, nil, 1)

	_, err := r.Reply(context.Background(), "", nil, "one", ModeFast)
	require.NoError(t, err)
	_, err = r.Reply(context.Background(), "", nil, "two", ModeFast)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Len(t, fast.calls, 1)
}

func TestHumanize(t *testing.T) {
	cases := map[string]string{
		"I am here (probably) and it is fine.":      "I'm here and it's fine.",
		"*sighs* You are right, I do not know.":     "You're right, I don't know.",
		"[laughs] That is   the   thing":            "That's the thing",
		"It is what it is, i am sure.":              "It's what it's, I'm sure.",
		"We would not. We cannot. Let us go, friend": "We wouldn't. We can't. Let's go, friend",
		"   ": "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Humanize(in), in)
	}
}

func TestOpenAIClient_Generate(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","model":"deepseek-chat",
			"choices":[{"index":0,"message":{"role":"assistant","content":"hey you"},"finish_reason":"stop"}],
			"usage":{"prompt_tokens":5,"completion_tokens":2,"total_tokens":7}}`))
	}))
	defer srv.Close()

	c := NewOpenAI("key", srv.URL, "deepseek-chat", 180)
	resp, err := c.Generate(context.Background(), []Message{{Role: "user", Content: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, "hey you", resp.Content)
	assert.Equal(t, 7, resp.TotalTokens)
	assert.EqualValues(t, 180, body["max_tokens"])
	assert.Equal(t, "deepseek-chat", body["model"])
}

func TestOpenAIClient_ServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"boom"}}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewOpenAI("key", srv.URL, "m", 0).Generate(context.Background(), []Message{{Role: "user", Content: "hi"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestFactory(t *testing.T) {
	f := &Factory{Provider: config.ProviderOpenAI}
	_, err := f.CreateClient("m", 10)
	assert.ErrorIs(t, err, ErrUnavailable)

	f.OpenaiAPIKey = "k"
	c, err := f.CreateClient("m", 10)
	require.NoError(t, err)
	assert.IsType(t, &OpenAIClient{}, c)

	f.Provider = "mystery"
	_, err = f.CreateClient("m", 10)
	assert.Error(t, err)
}

func TestIAMCache_RenewsStaleToken(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	minted := 0
	var mintErr error
	c := newIAMCache(func() (string, error) {
		if mintErr != nil {
			return "", mintErr
		}
		minted++
		return fmt.Sprintf("t%d", minted), nil
	}, func() time.Time { return now })

	tok, err := c.Token()
	require.NoError(t, err)
	assert.Equal(t, "t1", tok)

	now = now.Add(9 * time.Hour)
	tok, _ = c.Token()
	assert.Equal(t, "t1", tok)

	now = now.Add(2 * time.Hour)
	tok, _ = c.Token()
	assert.Equal(t, "t2", tok)

	now = now.Add(iamTokenTTL)
	mintErr = errors.New("oauth revoked")
	_, err = c.Token()
	assert.ErrorContains(t, err, "oauth revoked")
}

func TestTrimToBudget(t *testing.T) {
	long := "First sentence here. Second sentence is a bit longer than that. Third one trails off"

	assert.Equal(t, long, trimToBudget(long, 0))
	assert.Equal(t, long, trimToBudget("  "+long+" ", 100))
	assert.Equal(t, "First sentence here. Second sentence is a bit longer than that.", trimToBudget(long, 17))
	assert.Equal(t, "First sentence here...", trimToBudget("First sentence here and then it goes on", 5))

	fast := trimToBudget(long, 5)
	deep := trimToBudget(long, 20)
	assert.Less(t, len(fast), len(deep))
	assert.Equal(t, "Café...", trimToBudget("Café crème brûlée", 2))
}
