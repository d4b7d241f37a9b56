package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/Morwran/yagpt"
)

// IAM tokens live up to 12 hours; renew well before that.
const iamTokenTTL = 10 * time.Hour

// charsPerToken approximates how much text one completion token buys.
const charsPerToken = 4

// YandexClient calls YandexGPT. The IAM token is minted from the OAuth token
// and renewed when it gets old, since the loop runs for days. The yagpt
// client takes no length option, so maxTokens is enforced on the reply text.
type YandexClient struct {
	ya        yagpt.YaGPTFace
	token     *iamCache
	maxTokens int
}

func NewYandex(oauthToken, folderID string, maxTokens int) (*YandexClient, error) {
	iam, err := yagpt.NewYaIam(oauthToken)
	if err != nil {
		return nil, fmt.Errorf("yandex iam: %w", err)
	}
	ya, err := yagpt.NewYagpt(folderID)
	if err != nil {
		return nil, fmt.Errorf("yagpt: %w", err)
	}
	cache := newIAMCache(func() (string, error) {
		resp, err := iam.Create()
		if err != nil {
			return "", err
		}
		return resp.IamToken, nil
	}, time.Now)
	// fail fast on a bad OAuth token
	if _, err := cache.Token(); err != nil {
		return nil, err
	}
	return &YandexClient{ya: ya, token: cache, maxTokens: maxTokens}, nil
}

func (c *YandexClient) Generate(ctx context.Context, messages []Message) (Response, error) {
	token, err := c.token.Token()
	if err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	in := make([]yagpt.Message, len(messages))
	for i, m := range messages {
		in[i] = yagpt.Message{Role: m.Role, Content: m.Content}
	}

	resp, err := c.ya.CompletionWithCtx(ctx, token, in)
	if err != nil {
		return Response{}, fmt.Errorf("%w: yagpt: %v", ErrUnavailable, err)
	}
	if resp == nil || len(resp.Alternatives) == 0 {
		return Response{}, fmt.Errorf("%w: yagpt returned no alternatives", ErrUnavailable)
	}
	usage := resp.Usage
	return Response{
		Content:          trimToBudget(resp.Alternatives[0].Message.Content, c.maxTokens),
		Model:            yagpt.YaModelLite,
		PromptTokens:     int(usage.InputTextTokens),
		CompletionTokens: int(usage.CompletionTokens),
		TotalTokens:      int(usage.TotalTokens),
	}, nil
}

type iamCache struct {
	mint func() (string, error)
	now  func() time.Time

	mu     sync.Mutex
	token  string
	minted time.Time
}

func newIAMCache(mint func() (string, error), now func() time.Time) *iamCache {
	return &iamCache{mint: mint, now: now}
}

// Token returns the cached token, minting a new one when missing or stale.
func (c *iamCache) Token() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	age := c.now().Sub(c.minted)
	if c.token != "" && age < iamTokenTTL {
		return c.token, nil
	}
	tok, err := c.mint()
	if err != nil {
		return "", fmt.Errorf("create iam token: %w", err)
	}
	c.token, c.minted = tok, c.now()
	return tok, nil
}

// trimToBudget cuts text to about maxTokens worth of characters, preferring
// to stop at the end of a sentence. Zero or less means no limit.
func trimToBudget(text string, maxTokens int) string {
	text = strings.TrimSpace(text)
	budget := maxTokens * charsPerToken
	if maxTokens <= 0 || len(text) <= budget {
		return text
	}
	cut := text[:budget]
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	if i := strings.LastIndexAny(cut, ".!?"); i >= budget/2 {
		return cut[:i+1]
	}
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,;:-") + "..."
}
