package utterance

// Phrases groups every control phrase the controller reacts to. Matching is
// done on normalized text.
type Phrases struct {
	Stop      []string
	Sleep     []string
	Quiet     []string
	Serious   []string
	Deep      []string
	MoodCheck []string
	StateDump []string
}

// DefaultPhrases builds the phrase set; sleep phrases include "sleep <wake word>".
func DefaultPhrases(wakeWords []string) Phrases {
	sleep := []string{"go to sleep", "power down"}
	for _, w := range wakeWords {
		sleep = append(sleep, "sleep "+w)
	}
	return Phrases{
		Stop:      []string{"stop", "that's enough", "thats enough", "enough"},
		Sleep:     sleep,
		Quiet:     []string{"actually shut up", "tone it down", "quiet down"},
		Serious:   []string{"i'm being serious", "im being serious", "i am being serious", "actually stop", "take me serious", "take me seriously"},
		Deep:      []string{"deep mode", "big brain", "use reasoner"},
		MoodCheck: []string{"mood check", "how are you feeling", "how do you feel"},
		StateDump: []string{"state dump", "emotion dump"},
	}
}

func (p Phrases) IsStop(n string) bool { return MatchesPhrase(n, p.Stop) }

func (p Phrases) IsSleep(n string) bool { return MatchesPhrase(n, p.Sleep) }

// Serious is checked before stop: "actually stop" is a serious request.
func (p Phrases) IsSerious(n string) bool { return MatchesPhrase(n, p.Serious) }

func (p Phrases) IsQuiet(n string) bool { return MatchesPhrase(n, p.Quiet) }

func (p Phrases) WantsDeep(n string) bool { return ContainsPhrase(n, p.Deep) }

func (p Phrases) IsMoodCheck(n string) bool { return MatchesPhrase(n, p.MoodCheck) }

func (p Phrases) IsStateDump(n string) bool { return MatchesPhrase(n, p.StateDump) }
