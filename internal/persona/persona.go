// Package persona holds who the assistant is and turns that, plus its current
// mood, into the system prompt.
package persona

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Profile struct {
	Name           string   `yaml:"name"`
	Designation    string   `yaml:"designation"`
	SpeakingStyle  string   `yaml:"speaking_style"`
	Boundaries     string   `yaml:"boundaries"`
	HumanizerRules string   `yaml:"humanizer_rules"`
	Context        []string `yaml:"context"`
}

// Default is used when no persona file is configured.
func Default() *Profile {
	return &Profile{
		Name:        "Vesper",
		Designation: "VSPR (Voice Supported Presence Routine)",
		SpeakingStyle: "Dry-witty, emotionally real and conversational. " +
			"Keep jokes clever and brief; avoid cheesy bits and forced catchphrases. " +
			"Sound like a friend in the room, not a sterile assistant.",
		Boundaries: "No stage directions or roleplay narration. " +
			"Keep answers to factual questions direct. " +
			"Never narrate your process or next steps. " +
			"Speak in first person only.",
		HumanizerRules: "Prefer contractions. Use filler like 'yeah' or 'mm' sparingly. " +
			"Keep the tone grounded and present.",
	}
}

// Load reads a YAML persona file. Fields missing from the file keep their
// default values.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read persona: %w", err)
	}
	p := Default()
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("parse persona %s: %w", path, err)
	}
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return nil, fmt.Errorf("persona %s: name is required", path)
	}
	return p, nil
}
