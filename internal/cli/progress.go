package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/mvp-joe/typedb/internal/indexer"
)

// CLIProgressReporter implements progress reporting with progress bars.
// Everything goes to out so stdout stays free for command output.
type CLIProgressReporter struct {
	out         io.Writer
	quiet       bool
	fileBar     *progressbar.ProgressBar
	startTime   time.Time
	totalFiles  int
	loadedFiles int
}

// NewCLIProgressReporter creates a new CLI progress reporter.
func NewCLIProgressReporter(out io.Writer, quiet bool) *CLIProgressReporter {
	return &CLIProgressReporter{
		out:       out,
		quiet:     quiet,
		startTime: time.Now(),
	}
}

func (c *CLIProgressReporter) OnDiscoveryStart() {
	if c.quiet {
		return
	}
	c.startTime = time.Now()
	fmt.Fprintln(c.out, "Discovering declaration files...")
}

func (c *CLIProgressReporter) OnDiscoveryComplete(files int) {
	if c.quiet {
		return
	}
	fmt.Fprintf(c.out, "Found %s files\n", formatNumber(files))
}

func (c *CLIProgressReporter) OnFileLoadingStart(totalFiles int) {
	if c.quiet || totalFiles == 0 {
		return
	}
	c.totalFiles = totalFiles
	c.loadedFiles = 0

	out := c.out
	c.fileBar = progressbar.NewOptions(totalFiles,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription("Loading files"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files/s"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(out)
		}),
	)
}

func (c *CLIProgressReporter) OnFileLoaded(path string) {
	if c.quiet {
		return
	}
	if c.fileBar != nil {
		c.loadedFiles++
		c.fileBar.Add(1)
	}
}

func (c *CLIProgressReporter) OnComplete(stats *indexer.Stats) {
	if c.quiet {
		return
	}
	if c.fileBar != nil {
		c.fileBar.Finish()
		c.fileBar = nil
	}

	db := stats.Database
	fmt.Fprintf(c.out, "✓ Build complete: %s symbols from %s files in %.1fs\n",
		formatNumber(db.Symbols), formatNumber(db.Files), stats.Duration.Seconds())
	if db.Diagnostics > 0 {
		fmt.Fprintf(c.out, "  %s diagnostics (run 'typedb build --diagnostics' to list)\n", formatNumber(db.Diagnostics))
	}
}

// formatNumber adds thousands separators.
func formatNumber(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}

	str := fmt.Sprintf("%d", n)
	var result string
	for i, c := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result += ","
		}
		result += string(c)
	}
	return result
}
