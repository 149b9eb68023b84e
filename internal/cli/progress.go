package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/schollz/progressbar/v3"
)

// Progress wraps a terminal progress bar for batch commands.
type Progress struct {
	bar    *progressbar.ProgressBar
	writer io.Writer
	done   int
}

// NewProgress creates a progress bar over total steps. A nil writer uses
// stderr so piped stdout stays clean.
func NewProgress(writer io.Writer, total int, description string) *Progress {
	if writer == nil {
		writer = os.Stderr
	}
	p := &Progress{writer: writer}
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(writer),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]"+description+"[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(writer); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
	return p
}

// Step advances the bar by n.
func (p *Progress) Step(n int) {
	p.done += n
	if err := p.bar.Add(n); err != nil {
		slog.Warn("Failed to update progress bar", "error", err)
	}
}

// Describe replaces the description shown next to the bar.
func (p *Progress) Describe(description string) {
	p.bar.Describe("[cyan][bold]" + description + "[reset]")
}

// Done returns how many steps have completed.
func (p *Progress) Done() int {
	return p.done
}

// Finish fills the bar.
func (p *Progress) Finish() {
	if err := p.bar.Finish(); err != nil {
		slog.Warn("Failed to finish progress bar", "error", err)
	}
}
