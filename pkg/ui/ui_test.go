package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"imgbundle/pkg/config"
	"imgbundle/pkg/models"
)

func withoutColor(t *testing.T) {
	t.Helper()
	prev := colorEnabled
	SetColor(false)
	t.Cleanup(func() { SetColor(prev) })
}

func TestColorToggle(t *testing.T) {
	withoutColor(t)
	assert.Equal(t, "plain", Red("plain"))

	SetColor(true)
	assert.Equal(t, "\033[31mred\033[0m", Red("red"))
}

func TestPrintHelpers(t *testing.T) {
	withoutColor(t)
	var buf bytes.Buffer
	prev := Out
	Out = &buf
	defer func() { Out = prev }()

	PrintError("failed", errors.New("boom"))
	PrintWarning("careful")
	PrintInfo("Page", "https://e.com")

	assert.Equal(t, "failed: boom\ncareful\nPage: https://e.com\n", buf.String())
}

func TestWriteImageTable(t *testing.T) {
	withoutColor(t)
	var buf bytes.Buffer
	images := []models.ImageRecord{
		{SourceURL: "https://e.com/a.png", Width: 10, Height: 20, ByteSize: 2048},
		{SourceURL: "https://e.com/b.jpeg"},
	}
	WriteImageTable(&buf, images, func(u string) bool { return u == "https://e.com/a.png" })

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 3)
	assert.Contains(t, lines[1], "✓")
	assert.Contains(t, lines[1], "10x20")
	assert.Contains(t, lines[1], "2.0 kB")
	assert.Contains(t, lines[2], "jpeg")
	assert.Contains(t, lines[2], "?")
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "-", FormatBytes(0))
	assert.Equal(t, "5.0 MB", FormatBytes(5_000_000))
}

func TestTruncateURL(t *testing.T) {
	assert.Equal(t, "short", TruncateURL("short", 10))
	got := TruncateURL("https://example.com/very/long/path/image.png", 20)
	assert.Len(t, []rune(got), 20)
	assert.True(t, strings.HasPrefix(got, "https://e"))
	assert.True(t, strings.HasSuffix(got, "image.png"))
}

func TestProgressDisplay(t *testing.T) {
	withoutColor(t)
	var buf bytes.Buffer
	p := NewProgressDisplay(&buf, 4, false)

	p.Update(1, "https://e.com/1.png", 1000, nil)
	p.Update(2, "https://e.com/2.png", 0, errors.New("404"))

	line := p.Line()
	assert.Contains(t, line, "2/4")
	assert.Contains(t, line, "1 failed")
	assert.Contains(t, line, "1.0 kB")
	assert.Contains(t, line, "━━━━━━━━━━──────────")

	p.Complete("/tmp/images.zip")
	assert.Contains(t, buf.String(), "1 images → /tmp/images.zip")
	assert.Contains(t, buf.String(), "1 downloads failed")
}

func TestProgressDisplayVerbose(t *testing.T) {
	withoutColor(t)
	var buf bytes.Buffer
	p := NewProgressDisplay(&buf, 2, true)
	p.Update(1, "https://e.com/1.png", 10, nil)
	p.Update(2, "https://e.com/2.png", 0, errors.New("gone"))

	assert.Equal(t, "✓ https://e.com/1.png • 10 B\n✗ https://e.com/2.png: gone\n", buf.String())
}

type recordingSender struct{ sent []string }

func (r *recordingSender) Send(title, message string) error {
	r.sent = append(r.sent, title+": "+message)
	return nil
}

func TestNotifier(t *testing.T) {
	rec := &recordingSender{}
	n := NewNotifierWithSender(rec, true, false)
	n.Complete("saved")
	n.Error("failed")
	assert.Equal(t, []string{"imgbundle: saved"}, rec.sent)

	disabled := NewNotifier(&config.NotificationConfig{Enabled: false, OnComplete: true})
	disabled.Complete("nothing happens")
}
