package voice

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"presence-agent/internal/auth"
)

type sent struct {
	chatID int64
	text   string
}

type fakeSender struct {
	sent []sent
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	m := c.(tgbotapi.MessageConfig)
	f.sent = append(f.sent, sent{chatID: m.ChatID, text: m.Text})
	return tgbotapi.Message{}, nil
}

func message(userID, chatID int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		From: &tgbotapi.User{ID: userID, UserName: "u"},
		Chat: &tgbotapi.Chat{ID: chatID},
		Text: text,
	}
}

func TestSoftMixer(t *testing.T) {
	m := NewSoftMixer(150)
	assert.Equal(t, 100, m.Volume())
	require.NoError(t, m.SetVolume(0))
	assert.True(t, m.Muted())
	assert.Error(t, m.SetVolume(101))
	assert.Equal(t, 0, m.Volume())
}

func TestConsoleListenAndSpeak(t *testing.T) {
	defer goleak.VerifyNone(t)

	var out bytes.Buffer
	mixer := NewSoftMixer(60)
	c := NewConsole(strings.NewReader("hello there\n\n  vesper what time is it  \n"), &out, "Vesper", mixer, nil)
	ctx := context.Background()

	line, err := c.Listen(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "hello there", line)
	line, err = c.Listen(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "vesper what time is it", line)

	// input exhausted: silence until max
	line, err = c.Listen(ctx, 20*time.Millisecond)
	require.NoError(t, err)
	assert.Empty(t, line)

	require.NoError(t, c.Speak(ctx, "hi"))
	require.NoError(t, mixer.SetVolume(0))
	require.NoError(t, c.Speak(ctx, "nobody hears this"))
	assert.Equal(t, "Vesper: hi\n", out.String())
}

func TestListenHonoursContext(t *testing.T) {
	ch := make(chan string)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := listenOn(ctx, ch, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTelegramUnauthorized(t *testing.T) {
	fs := &fakeSender{}
	tg := newTelegram(fs, 0, auth.New([]int64{1}), nil, nil)

	tg.handleIncomingMessage(message(2, 200, "let me in"))

	require.Len(t, fs.sent, 1)
	assert.Equal(t, int64(200), fs.sent[0].chatID)
	line, err := tg.Listen(context.Background(), 10*time.Millisecond)
	require.NoError(t, err)
	assert.Empty(t, line)
}

func TestTelegramBindsFirstChat(t *testing.T) {
	fs := &fakeSender{}
	tg := newTelegram(fs, 0, auth.New([]int64{1, 3}), NewSoftMixer(50), nil)
	ctx := context.Background()

	assert.ErrorIs(t, tg.Speak(ctx, "anyone?"), ErrUnavailable)

	tg.handleIncomingMessage(message(1, 100, " hi vesper "))
	tg.handleIncomingMessage(message(3, 300, "other chat"))

	line, err := tg.Listen(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "hi vesper", line)
	line, err = tg.Listen(ctx, 10*time.Millisecond)
	require.NoError(t, err)
	assert.Empty(t, line)

	require.NoError(t, tg.Speak(ctx, "hello"))
	require.Len(t, fs.sent, 1)
	assert.Equal(t, sent{chatID: 100, text: "hello"}, fs.sent[0])
}

func TestTelegramVoiceAndSendErrors(t *testing.T) {
	fs := &fakeSender{}
	tg := newTelegram(fs, 100, auth.New([]int64{1}), nil, nil)

	msg := message(1, 100, "")
	msg.Voice = &tgbotapi.Voice{FileID: "f"}
	tg.handleIncomingMessage(msg)
	require.Len(t, fs.sent, 1)
	assert.Contains(t, fs.sent[0].text, "text")

	fs.err = errors.New("network down")
	assert.ErrorIs(t, tg.Speak(context.Background(), "x"), ErrUnavailable)
}

func TestTelegramConsumeStopsOnClose(t *testing.T) {
	defer goleak.VerifyNone(t)

	tg := newTelegram(&fakeSender{}, 0, auth.New([]int64{1}), nil, nil)
	updates := make(chan tgbotapi.Update, 1)
	updates <- tgbotapi.Update{Message: message(1, 5, "ping")}
	close(updates)

	tg.consume(context.Background(), updates)

	line, err := tg.Listen(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, "ping", line)
}
