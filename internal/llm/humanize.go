package llm

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	asideParen   = regexp.MustCompile(`\([^)]{1,120}\)`)
	asideBracket = regexp.MustCompile(`\[[^\]]{1,120}\]`)
	asideAction  = regexp.MustCompile(`\*[^*]{1,80}\*`)
	spaces       = regexp.MustCompile(`\s+`)
	spaceBefore  = regexp.MustCompile(`\s+([,.!?;:])`)
)

type contraction struct {
	re   *regexp.Regexp
	with string
}

// Longer phrases come first so they win over their subsets.
var contractions = buildContractions([][2]string{
	{"would not", "wouldn't"},
	{"could not", "couldn't"},
	{"should not", "shouldn't"},
	{"will not", "won't"},
	{"did not", "didn't"},
	{"have not", "haven't"},
	{"has not", "hasn't"},
	{"do not", "don't"},
	{"cannot", "can't"},
	{"I am", "I'm"},
	{"I will", "I'll"},
	{"I would", "I'd"},
	{"I have", "I've"},
	{"you are", "you're"},
	{"you will", "you'll"},
	{"you would", "you'd"},
	{"you have", "you've"},
	{"they are", "they're"},
	{"we are", "we're"},
	{"it is", "it's"},
	{"that is", "that's"},
	{"there is", "there's"},
	{"here is", "here's"},
	{"what is", "what's"},
	{"let us", "let's"},
	{"he is", "he's"},
	{"she is", "she's"},
})

func buildContractions(pairs [][2]string) []contraction {
	out := make([]contraction, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, contraction{re: regexp.MustCompile(`(?i)\b` + p[0] + `\b`), with: p[1]})
	}
	return out
}

// Humanize turns model output into something that sounds spoken: stage
// directions and asides are dropped and formal phrasing is contracted.
func Humanize(text string) string {
	v := strings.TrimSpace(spaces.ReplaceAllString(text, " "))
	if v == "" {
		return ""
	}
	v = asideParen.ReplaceAllString(v, "")
	v = asideBracket.ReplaceAllString(v, "")
	v = asideAction.ReplaceAllString(v, "")
	v = strings.TrimSpace(spaces.ReplaceAllString(v, " "))
	v = spaceBefore.ReplaceAllString(v, "$1")

	for _, c := range contractions {
		v = c.re.ReplaceAllStringFunc(v, func(m string) string {
			return matchCase(m, c.with)
		})
	}
	return strings.TrimSpace(v)
}

// matchCase keeps a capital first letter when the original had one.
func matchCase(orig, repl string) string {
	r := []rune(repl)
	if unicode.IsUpper([]rune(orig)[0]) {
		r[0] = unicode.ToUpper(r[0])
	} else if repl[0] != 'I' {
		r[0] = unicode.ToLower(r[0])
	}
	return string(r)
}
