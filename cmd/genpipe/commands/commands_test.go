package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhpenta/genpipe"
)

func init() {
	color.NoColor = true
}

func TestLoadHistory_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
- role: User
  content: Hello there
- role: assistant
  content: Hi!
`), 0o644))

	turns, err := loadHistory(path)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, genpipe.RoleUser, turns[0].Role)
	assert.Equal(t, "Hello there", turns[0].Content)
	assert.Equal(t, genpipe.RoleAssistant, turns[1].Role)
}

func TestLoadHistory_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"role":"user","content":"hi"}]`), 0o644))

	turns, err := loadHistory(path)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "hi", turns[0].Content)
}

func TestLoadHistory_Errors(t *testing.T) {
	turns, err := loadHistory("")
	require.NoError(t, err)
	assert.Empty(t, turns)

	_, err = loadHistory(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("role: user"), 0o644))
	_, err = loadHistory(path)
	assert.Error(t, err)
}

func TestPrintImages(t *testing.T) {
	var buf bytes.Buffer
	printImages(&buf, []genpipe.GeneratedImage{
		{
			Prompt:         "sunset",
			DirectorPrompt: "sunset, golden hour",
			Caption:        "Golden valley",
			URL:            "/uploads/imageforge/a.svg",
			MIMEType:       genpipe.MIMETypeSVG,
			Provider:       genpipe.ProviderPlaceholder,
			Palette:        []string{"#112233"},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "Golden valley")
	assert.Contains(t, out, "director: sunset, golden hour")
	assert.Contains(t, out, "[placeholder] /uploads/imageforge/a.svg")
	assert.Contains(t, out, "#112233")
}

func TestPrintReply(t *testing.T) {
	var buf bytes.Buffer
	printReply(&buf, "hello")
	assert.Equal(t, "hello\n", buf.String())
}
