package main

import (
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/apd/v3"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"zoomrender/internal/decimalx"
	"zoomrender/internal/dispatch"
)

var printer = message.NewPrinter(language.English)

// progressReporter prints one line per rendered frame, or drives a progress
// bar when the output is a terminal.
type progressReporter struct {
	out io.Writer
	bar *progressbar.ProgressBar
}

func newProgressReporter(out io.Writer, rendered, total int) *progressReporter {
	r := &progressReporter{out: out}
	if !isTerminal(out) {
		return r
	}
	r.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription("rendering"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionClearOnFinish(),
	)
	_ = r.bar.Set(rendered)
	return r
}

func (r *progressReporter) FrameRendered(rep dispatch.FrameReport) {
	if r.bar != nil {
		r.bar.Describe(fmt.Sprintf("zoom level %.2f", rep.ZoomLevel))
		_ = r.bar.Set(rep.RenderedFrames)
		return
	}
	percent := 0.0
	if rep.TotalFrames > 0 {
		percent = float64(rep.RenderedFrames) / float64(rep.TotalFrames) * 100
	}
	fmt.Fprintf(r.out, "PROGRESS: %.4f%% - Zoom level %.4f - Frame time %.4f sec\n",
		percent, rep.ZoomLevel, rep.Elapsed.Seconds())
}

func (r *progressReporter) Finish() {
	if r.bar != nil {
		_ = r.bar.Finish()
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// shortDecimal rounds d to 12 significant digits for tables. Session files
// and renderer argv always carry the full value.
func shortDecimal(d *apd.Decimal) string {
	if d == nil {
		return ""
	}
	c := decimalx.NewCalc()
	rounded := c.Round(d, 12)
	if c.Err() != nil {
		return decimalx.Format(d)
	}
	return decimalx.Format(rounded)
}

func groupInt(n int) string {
	return printer.Sprintf("%d", n)
}
