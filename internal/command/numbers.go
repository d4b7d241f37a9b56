package command

import (
	"strconv"
	"strings"
)

var numberWords = map[string]int{
	"zero": 0, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	"eleven": 11, "twelve": 12, "thirteen": 13, "fourteen": 14, "fifteen": 15,
	"sixteen": 16, "seventeen": 17, "eighteen": 18, "nineteen": 19,
	"twenty": 20, "thirty": 30, "forty": 40, "fifty": 50, "sixty": 60,
	"a": 1, "an": 1,
}

// ParseNumber reads digits, a spoken number ("five") or a compound
// ("twenty-one").
func ParseNumber(tok string) (int, bool) {
	tok = strings.ToLower(strings.TrimSpace(tok))
	if tok == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(tok); err == nil && n >= 0 {
		return n, true
	}
	if n, ok := numberWords[tok]; ok {
		return n, true
	}
	if tens, ones, ok := strings.Cut(tok, "-"); ok {
		t, okT := numberWords[tens]
		o, okO := numberWords[ones]
		if okT && okO && t >= 20 && t%10 == 0 && o > 0 && o < 10 {
			return t + o, true
		}
	}
	return 0, false
}
