package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"imgbundle/pkg/config"
	"imgbundle/pkg/models"
)

func TestExtension(t *testing.T) {
	tests := map[string]string{
		"https://example.com/a/photo.PNG":            "png",
		"https://example.com/pic.jpg?w=200&h=100":    "jpg",
		"https://example.com/pic.webp#frag":          "webp",
		"https://example.com/archive.tar.gz":         "gz",
		"https://cdn.example.com/image?id=1.5":       "5",
		"data:image/png;base64,AAAA":                 "data:image/png;base64,aaaa",
		"https://example.com/pic.svg?x=1#y":          "svg",
	}
	for url, want := range tests {
		assert.Equal(t, want, Extension(url), url)
	}
}

func TestExtensionWithoutDot(t *testing.T) {
	assert.Equal(t, "noextension", Extension("NoExtension"))
	assert.Equal(t, "abc", Extension("abc?q#f"))
}

func TestMatches(t *testing.T) {
	rec := models.ImageRecord{SourceURL: "https://e.com/a.png", Width: 200, Height: 150, ByteSize: 5000}

	assert.True(t, Matches(rec, Default()))
	assert.True(t, Matches(rec, Criteria{MinWidth: 200, MinHeight: 150, FileType: "all"}))
	assert.False(t, Matches(rec, Criteria{MinWidth: 201, FileType: "all"}))
	assert.False(t, Matches(rec, Criteria{MinHeight: 151, FileType: "all"}))
	assert.True(t, Matches(rec, Criteria{FileType: "PNG"}))
	assert.True(t, Matches(rec, Criteria{FileType: ".png"}))
	assert.False(t, Matches(rec, Criteria{FileType: "jpg"}))
	assert.True(t, Matches(rec, Criteria{FileType: ""}), "empty type means all")
	assert.True(t, Matches(rec, Criteria{FileType: "all", MaxByteSize: 5000}))
	assert.False(t, Matches(rec, Criteria{FileType: "all", MaxByteSize: 4999}))
}

func TestUnknownSizePassesSizeLimit(t *testing.T) {
	rec := models.ImageRecord{SourceURL: "https://e.com/a.png", Width: 10, Height: 10}
	assert.True(t, Matches(rec, Criteria{FileType: "all", MaxByteSize: 1}))
}

func TestApplyDimensionAndSize(t *testing.T) {
	a := models.ImageRecord{SourceURL: "https://e.com/A.png", Width: 50, Height: 50, ByteSize: 100}
	b := models.ImageRecord{SourceURL: "https://e.com/B.png", Width: 200, Height: 200, ByteSize: 5_000_000}

	got := Apply([]models.ImageRecord{a, b}, Criteria{MinWidth: 100, MinHeight: 100, FileType: "all"})
	assert.Equal(t, []string{b.SourceURL}, got)

	got = Apply([]models.ImageRecord{a, b}, Criteria{FileType: "all", MaxByteSize: 1000})
	assert.Equal(t, []string{a.SourceURL}, got)
}

func TestApplyIsIdempotent(t *testing.T) {
	images := []models.ImageRecord{
		{SourceURL: "https://e.com/1.jpg", Width: 300, Height: 300},
		{SourceURL: "https://e.com/2.gif", Width: 10, Height: 10},
		{SourceURL: "https://e.com/3.jpg", Width: 120, Height: 90},
	}
	c := Criteria{MinWidth: 100, FileType: "jpg"}

	first := Apply(images, c)
	second := Apply(Filter(images, c), c)
	assert.Equal(t, first, second)
	assert.Equal(t, []string{"https://e.com/1.jpg", "https://e.com/3.jpg"}, first)
}

func TestApplyEmpty(t *testing.T) {
	assert.Empty(t, Apply(nil, Default()))
}

func TestSelectLargeKeepsTypeAndSize(t *testing.T) {
	current := Criteria{MinWidth: 5, MinHeight: 800, FileType: "png", MaxByteSize: 42}
	got := SelectLarge(current)
	assert.Equal(t, Criteria{MinWidth: 100, MinHeight: 100, FileType: "png", MaxByteSize: 42}, got)
	assert.Equal(t, Criteria{MinWidth: 100, MinHeight: 100, FileType: "all"}, Large())
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Default().Validate())
	assert.Error(t, Criteria{MinWidth: -1}.Validate())
	assert.Error(t, Criteria{MinHeight: -1}.Validate())
	assert.Error(t, Criteria{MaxByteSize: -1}.Validate())
}

func TestMatchesAll(t *testing.T) {
	assert.True(t, Default().MatchesAll())
	assert.True(t, Criteria{}.MatchesAll())
	assert.False(t, Large().MatchesAll())
	assert.False(t, Criteria{FileType: "png"}.MatchesAll())
	assert.False(t, Criteria{MaxByteSize: 10}.MatchesAll())
}

func TestFromConfig(t *testing.T) {
	cfg := config.DefaultConfig().Filter
	cfg.MinWidth = 7
	cfg.FileType = "gif"
	assert.Equal(t, Criteria{MinWidth: 7, FileType: "gif"}, FromConfig(&cfg))
}

func TestTypes(t *testing.T) {
	images := []models.ImageRecord{
		{SourceURL: "https://e.com/1.jpg"},
		{SourceURL: "https://e.com/2.PNG"},
		{SourceURL: "https://e.com/3.jpg"},
	}
	assert.Equal(t, []string{"jpg", "png"}, Types(images))
}
