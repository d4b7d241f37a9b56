// Package utterance cleans up speech transcripts and recognizes the phrases
// that steer the conversation: wake words, stop and sleep requests and so on.
package utterance

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Norm lowercases, strips accents and collapses everything that is not a
// letter or digit into single spaces.
func Norm(text string) string {
	folded, _, err := transform.String(foldMarks, text)
	if err != nil {
		folded = text
	}
	var b strings.Builder
	b.Grow(len(folded))
	space := true
	for _, r := range strings.ToLower(folded) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	return strings.TrimSpace(b.String())
}

// LooksLikeGarbage flags transcripts that are too short, mostly non-ASCII or
// lack letters entirely, which is what STT emits for noise.
func LooksLikeGarbage(raw string) bool {
	v := strings.TrimSpace(raw)
	if len([]rune(v)) < 3 {
		return true
	}
	var total, nonASCII, alpha int
	for _, r := range v {
		total++
		if r > unicode.MaxASCII {
			nonASCII++
		}
		if unicode.IsLetter(r) {
			alpha++
		}
	}
	if float64(nonASCII)/float64(total) > 0.25 {
		return true
	}
	return alpha == 0 && total < 10
}

var fillers = map[string]bool{
	"hey": true, "hi": true, "yo": true, "yeah": true, "yah": true, "yep": true,
	"nope": true, "huh": true, "um": true, "uh": true, "but": true, "ok": true, "okay": true,
}

// IsFiller reports a single filler word such as "um" or "okay".
func IsFiller(normalized string) bool {
	parts := strings.Fields(normalized)
	return len(parts) == 1 && fillers[parts[0]]
}

// Meaningful is true for speech worth answering.
func Meaningful(raw string) bool {
	return !LooksLikeGarbage(raw) && !IsFiller(Norm(raw))
}

// MatchesPhrase is true when normalized equals one of phrases or starts
// with one followed by more words.
func MatchesPhrase(normalized string, phrases []string) bool {
	for _, p := range phrases {
		p = Norm(p)
		if p == "" {
			continue
		}
		if normalized == p || strings.HasPrefix(normalized, p+" ") {
			return true
		}
	}
	return false
}

// ContainsPhrase is true when any phrase appears as whole words inside normalized.
func ContainsPhrase(normalized string, phrases []string) bool {
	padded := " " + normalized + " "
	for _, p := range phrases {
		if p = Norm(p); p != "" && strings.Contains(padded, " "+p+" ") {
			return true
		}
	}
	return false
}
