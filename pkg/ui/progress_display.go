package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// ProgressDisplay renders the one-line progress of an archive build
type ProgressDisplay struct {
	mu          sync.Mutex
	out         io.Writer
	total       int
	completed   int
	failed      int
	bytes       int64
	current     string
	startTime   time.Time
	verbose     bool
	lastPrinted int
}

// NewProgressDisplay creates a display for total items. In verbose mode
// every item gets its own line instead of the redrawn bar.
func NewProgressDisplay(out io.Writer, total int, verbose bool) *ProgressDisplay {
	return &ProgressDisplay{
		out:       out,
		total:     total,
		startTime: time.Now(),
		verbose:   verbose,
	}
}

// Update records one settled item
func (p *ProgressDisplay) Update(completed int, url string, size int64, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.completed = completed
	p.current = url
	if err != nil {
		p.failed++
	} else {
		p.bytes += size
	}

	if p.verbose {
		if err != nil {
			fmt.Fprintf(p.out, "%s %s: %v\n", Red("✗"), url, err)
		} else {
			fmt.Fprintf(p.out, "%s %s • %s\n", Green("✓"), url, FormatBytes(size))
		}
		return
	}
	p.printProgress()
}

// Line returns the current progress line without printing it
func (p *ProgressDisplay) Line() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.line()
}

func (p *ProgressDisplay) line() string {
	const barWidth = 20
	progress := 0.0
	if p.total > 0 {
		progress = float64(p.completed) / float64(p.total)
	}
	filled := int(progress * float64(barWidth))
	bar := strings.Repeat("━", filled) + strings.Repeat("─", barWidth-filled)

	line := fmt.Sprintf("[%s] %d/%d • %s", bar, p.completed, p.total, humanize.Bytes(uint64(p.bytes)))
	if p.failed > 0 {
		line += fmt.Sprintf(" • %s", Red(fmt.Sprintf("%d failed", p.failed)))
	}
	if p.current != "" {
		line += " • " + Dim(TruncateURL(p.current, 48))
	}
	return line
}

func (p *ProgressDisplay) printProgress() {
	line := p.line()
	pad := ""
	if n := p.lastPrinted - len(line); n > 0 {
		pad = strings.Repeat(" ", n)
	}
	p.lastPrinted = len(line)
	fmt.Fprintf(p.out, "\r%s%s", line, pad)
}

// Complete prints the summary after the last item
func (p *ProgressDisplay) Complete(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	elapsed := time.Since(p.startTime)
	if !p.verbose {
		fmt.Fprintln(p.out)
	}

	saved := p.completed - p.failed
	if path != "" {
		fmt.Fprintf(p.out, "%s %d images → %s\n", Green("✓"), saved, path)
	}
	fmt.Fprintf(p.out, "  %s %s in %s\n", Dim("•"), humanize.Bytes(uint64(p.bytes)), formatDuration(elapsed))
	if p.failed > 0 {
		fmt.Fprintf(p.out, "  %s %d downloads failed\n", Dim("•"), p.failed)
	}
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
