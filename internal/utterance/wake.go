package utterance

import "strings"

// DefaultVariants are common mis-transcriptions of the default wake words.
var DefaultVariants = []string{
	"vesta", "vespa", "vesber", "vespar", "vespur",
	"vest per", "vesp her", "vest bur", "best per",
}

// fuzzyMinLen keeps short wake words exact; one edit on a four-letter word
// hits too many real words.
const fuzzyMinLen = 6

type WakeDetector struct {
	words    []string
	variants map[string]int // normalized variant -> word count
	maxSpan  int
}

func NewWakeDetector(words, variants []string) *WakeDetector {
	d := &WakeDetector{variants: map[string]int{}, maxSpan: 1}
	for _, w := range words {
		if w = Norm(w); w != "" {
			d.words = append(d.words, w)
			d.addVariant(w)
		}
	}
	for _, v := range variants {
		d.addVariant(Norm(v))
	}
	return d
}

func (d *WakeDetector) addVariant(v string) {
	if v == "" {
		return
	}
	n := len(strings.Fields(v))
	d.variants[v] = n
	d.maxSpan = max(d.maxSpan, n)
}

// Detect looks for a wake word in raw. When found it returns the raw text
// that followed it, so "Vesper, what time is it?" yields "what time is it?".
func (d *WakeDetector) Detect(raw string) (bool, string) {
	tokens := strings.Fields(raw)
	words := make([]string, len(tokens))
	for i, t := range tokens {
		words[i] = Norm(t)
	}
	for i := range tokens {
		if words[i] == "" {
			continue
		}
		for j := min(len(tokens), i+d.maxSpan); j > i; j-- {
			if d.matches(strings.Join(nonEmpty(words[i:j]), " "), j == i+1) {
				return true, strings.TrimLeft(strings.Join(tokens[j:], " "), ",.!?;: ")
			}
		}
	}
	return false, ""
}

// matches checks a span of tokens. Spans longer than one token only match
// listed variants so a wake word never swallows the words after it.
func (d *WakeDetector) matches(phrase string, single bool) bool {
	if _, ok := d.variants[phrase]; ok {
		return true
	}
	if !single {
		return false
	}
	// "vesper's" normalizes to "vesper s"
	for _, part := range strings.Fields(phrase) {
		for _, w := range d.words {
			if part == w || len(w) >= fuzzyMinLen && levenshtein(part, w) <= 1 {
				return true
			}
		}
	}
	return false
}

func nonEmpty(ws []string) []string {
	out := ws[:0:0]
	for _, w := range ws {
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}
