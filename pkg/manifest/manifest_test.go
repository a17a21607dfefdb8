package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imgbundle/pkg/filter"
	"imgbundle/pkg/models"
	"imgbundle/pkg/selection"
)

func sampleState() selection.State {
	return selection.New([]models.ImageRecord{
		{SourceURL: "https://e.com/a.png", Width: 1920, Height: 1080, ByteSize: 2048},
		{SourceURL: "https://e.com/b.jpg?v=2", Width: 50, Height: 50},
		{SourceURL: "https://e.com/c.gif"},
	}).Toggle("https://e.com/a.png").Toggle("https://e.com/c.gif")
}

func TestFromState(t *testing.T) {
	large := filter.Large()
	m := FromState("https://e.com/", sampleState(), &large)

	require.Len(t, m.Images, 3)
	assert.Equal(t, "png", m.Images[0].Extension)
	assert.Equal(t, "16:9", m.Images[0].AspectRatio)
	assert.True(t, m.Images[0].Selected)
	assert.Equal(t, "jpg", m.Images[1].Extension)
	assert.False(t, m.Images[1].Selected)
	assert.Equal(t, "unknown", m.Images[2].AspectRatio)
	assert.Equal(t, []string{"https://e.com/a.png", "https://e.com/c.gif"}, m.SelectedURLs())
}

func TestSaveLoadEachFormat(t *testing.T) {
	m := FromState("https://e.com/", sampleState(), nil)

	for _, name := range []string{"m.json", "m.yaml", "m.yml", "m.parquet"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out", name)
			require.NoError(t, m.Save(path))

			loaded, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, m.PageURL, loaded.PageURL)
			assert.True(t, m.ScannedAt.Equal(loaded.ScannedAt))
			assert.Equal(t, m.Images, loaded.Images)
			assert.Equal(t, m.SelectedURLs(), loaded.SelectedURLs())
		})
	}
}

func TestStateRoundTrip(t *testing.T) {
	st := sampleState()
	m := FromState("https://e.com/", st, nil)

	rebuilt := m.State()
	assert.Equal(t, st.SelectedURLs(), rebuilt.SelectedURLs())
	assert.Equal(t, st.Images(), rebuilt.Images())
}

func TestFormatFor(t *testing.T) {
	f, err := FormatFor("X.JSON")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = FormatFor("manifest.csv")
	assert.Error(t, err)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0644))
	_, err = Load(bad)
	assert.Error(t, err)
}

func TestAspectRatio(t *testing.T) {
	assert.Equal(t, "16:9", AspectRatio(1920, 1080))
	assert.Equal(t, "4:3", AspectRatio(800, 600))
	assert.Equal(t, "1:1", AspectRatio(100, 100))
	assert.Equal(t, "9:16", AspectRatio(1080, 1920))
	assert.Equal(t, "3:4", AspectRatio(600, 800))
	assert.Equal(t, "2.00:1", AspectRatio(200, 100))
	assert.Equal(t, "unknown", AspectRatio(10, 0))
}
