package utterance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNorm(t *testing.T) {
	assert.Equal(t, "what s the time", Norm("  What's   the TIME?! "))
	assert.Equal(t, "vesper cafe", Norm("Vésper, café"))
	assert.Equal(t, "", Norm("...!!"))
}

func TestLooksLikeGarbage(t *testing.T) {
	for _, s := range []string{"", "ab", "  ..  ", "123 4", "ыыыы ok"} {
		assert.True(t, LooksLikeGarbage(s), s)
	}
	for _, s := range []string{"hello there", "set timer 5 minutes", "1234567890"} {
		assert.False(t, LooksLikeGarbage(s), s)
	}
}

func TestFillerAndMeaningful(t *testing.T) {
	assert.True(t, IsFiller("okay"))
	assert.False(t, IsFiller("okay then"))
	assert.False(t, Meaningful("um"))
	assert.False(t, Meaningful("?"))
	assert.True(t, Meaningful("what time is it"))
}

func TestPhrases(t *testing.T) {
	p := DefaultPhrases([]string{"vesper"})

	assert.True(t, p.IsStop("stop"))
	assert.True(t, p.IsStop("stop talking"))
	assert.False(t, p.IsStop("stopwatch please"))
	assert.True(t, p.IsSleep(Norm("Sleep, Vesper.")))
	assert.True(t, p.IsSleep("go to sleep now"))
	assert.True(t, p.IsSerious(Norm("I'm being serious")))
	assert.True(t, p.IsQuiet("actually shut up"))
	assert.True(t, p.WantsDeep("okay big brain time explain entropy"))
	assert.False(t, p.WantsDeep("a bigbrain move"))
	assert.True(t, p.IsMoodCheck("mood check"))
	assert.True(t, p.IsStateDump("state dump"))
}

func TestWakeDetector(t *testing.T) {
	d := NewWakeDetector([]string{"vesper", "vesp"}, DefaultVariants)

	cases := []struct {
		in        string
		found     bool
		remainder string
	}{
		{"Vesper", true, ""},
		{"Vesper, what time is it?", true, "what time is it?"},
		{"hey vesp remind me later", true, "remind me later"},
		{"Vesper's awake?", true, "awake?"},
		{"vest per are you there", true, "are you there"},
		{"vespers tell me a joke", true, "tell me a joke"},
		{"Vespa", true, ""},
		{"the vest is blue", false, ""},
		{"whisper quietly", false, ""},
		{"", false, ""},
	}
	for _, c := range cases {
		found, rest := d.Detect(c.in)
		assert.Equal(t, c.found, found, c.in)
		assert.Equal(t, c.remainder, rest, c.in)
	}
}

func TestLevenshtein(t *testing.T) {
	assert.Equal(t, 0, levenshtein("abc", "abc"))
	assert.Equal(t, 1, levenshtein("vesper", "vespar"))
	assert.Equal(t, 3, levenshtein("kitten", "sitting"))
	assert.Equal(t, 6, levenshtein("", "vesper"))
}

func TestDeduper(t *testing.T) {
	d := NewDeduper(6 * time.Second)
	now := time.Unix(100, 0)

	assert.False(t, d.Duplicate("hello", now))
	assert.True(t, d.Duplicate("hello", now.Add(2*time.Second)))
	assert.False(t, d.Duplicate("hello", now.Add(10*time.Second)))
	assert.False(t, d.Duplicate("other", now.Add(11*time.Second)))
	assert.False(t, d.Duplicate("", now.Add(12*time.Second)))
	assert.False(t, d.Duplicate("", now.Add(13*time.Second)))
}
