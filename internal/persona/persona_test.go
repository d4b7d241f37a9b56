package persona

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"presence-agent/internal/emotion"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestLoad_MergesOverDefaults(t *testing.T) {
	p := filepath.Join(t.TempDir(), "persona.yaml")
	writeFile(t, p, "name: Juniper\ncontext:\n  - The user has a black lab named Dilly.\n")

	prof, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "Juniper", prof.Name)
	assert.Equal(t, Default().SpeakingStyle, prof.SpeakingStyle)
	assert.Equal(t, []string{"The user has a black lab named Dilly."}, prof.Context)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	writeFile(t, bad, "name: [unterminated")
	_, err = Load(bad)
	assert.Error(t, err)

	blank := filepath.Join(dir, "blank.yaml")
	writeFile(t, blank, "name: \"  \"\n")
	_, err = Load(blank)
	assert.Error(t, err)
}

func TestBuildSystemPrompt_IncludesMood(t *testing.T) {
	snap := emotion.BaselineSnapshot().With(emotion.Mood, 90)
	prompt := BuildSystemPrompt(Default(), snap)

	assert.Contains(t, prompt, "You are Vesper.")
	assert.Contains(t, prompt, snap.MoodLine())
	assert.Contains(t, prompt, "mood        [#########-]  90")
	assert.NotContains(t, prompt, "\n")
}

func TestHolder_ReloadsOnWrite(t *testing.T) {
	p := filepath.Join(t.TempDir(), "persona.yaml")
	writeFile(t, p, "name: First\n")

	h, err := NewHolder(p, nil)
	require.NoError(t, err)
	assert.Equal(t, "First", h.Profile().Name)

	require.NoError(t, h.Watch(context.Background()))
	defer h.Close()

	writeFile(t, p, "name: [broken")
	time.Sleep(400 * time.Millisecond)
	assert.Equal(t, "First", h.Profile().Name)

	writeFile(t, p, "name: Second\n")
	require.Eventually(t, func() bool { return h.Profile().Name == "Second" }, 3*time.Second, 20*time.Millisecond)
}

func TestHolder_DefaultWithoutPath(t *testing.T) {
	h, err := NewHolder("", nil)
	require.NoError(t, err)
	require.NoError(t, h.Watch(context.Background()))
	assert.Equal(t, "Vesper", h.Profile().Name)
	assert.NoError(t, h.Close())
}
