package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestEnglish(t *testing.T) {
	m := New("en")
	assert.Equal(t, "No images found on this page", m.T(NoImagesFound))
	assert.Equal(t, "No images selected", m.T(NoImagesSelected))
	assert.Equal(t, "Saved 3 images to /tmp/images.zip", m.T(ArchiveSaved, 3, "/tmp/images.zip"))
	assert.Equal(t, "Downloading 2/5", m.T(ArchiveBuilding, 2, 5))
}

func TestJapanese(t *testing.T) {
	m := New("ja-JP")
	assert.Equal(t, language.Japanese, m.Language())
	assert.Equal(t, "画像が選択されていません", m.T(NoImagesSelected))
	assert.Equal(t, "/tmp/a.zip に 2 件の画像を保存しました", m.T(ArchiveSaved, 2, "/tmp/a.zip"))
}

func TestPlurals(t *testing.T) {
	m := New("en")
	assert.Equal(t, "1 image found", m.T(ImagesFound, 1))
	assert.Equal(t, "4 images found", m.T(ImagesFound, 4))
	assert.Equal(t, "0 images found", m.T(ImagesFound, 0))
	assert.Equal(t, "2 of 7 selected", m.T(SelectedCount, 2, 7))
	assert.Equal(t, "7 件中 2 件を選択", New("ja").T(SelectedCount, 2, 7))
}

func TestFallbacks(t *testing.T) {
	assert.Equal(t, language.English, New("").Language())
	assert.Equal(t, language.English, New("not a language!").Language())

	m := New("en")
	assert.Equal(t, "some_unknown_key", m.T("some_unknown_key"))
	assert.Equal(t, "some_unknown_key", m.T("some_unknown_key", 1, 2))
}

func TestEveryKeyTranslated(t *testing.T) {
	en, ja := New("en"), New("ja")
	for _, e := range entries {
		assert.NotEqual(t, e.key, en.T(e.key), e.key)
		assert.NotEqual(t, e.key, ja.T(e.key), e.key)
	}
}

func TestSupported(t *testing.T) {
	assert.Equal(t, []string{"en", "ja"}, Supported())
}
