package summary

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// DefaultBarWidth is the widest bar drawn by RenderText.
const DefaultBarWidth = 50

// RenderText draws the histogram as a horizontal bar chart, one line per bin.
func RenderText(w io.Writer, h Histogram, barWidth int) error {
	if len(h.Counts) == 0 {
		_, err := fmt.Fprintln(w, "(no samples)")
		return err
	}
	if barWidth < 1 {
		barWidth = DefaultBarWidth
	}

	peak := 0.0
	for _, c := range h.Counts {
		peak = max(peak, c)
	}

	for i, c := range h.Counts {
		closing := ")"
		if i == len(h.Counts)-1 {
			closing = "]"
		}
		n := 0
		if peak > 0 {
			n = int(c / peak * float64(barWidth))
		}
		if _, err := fmt.Fprintf(w, "[%7.2f, %7.2f%s %-*s %d\n",
			h.Edges[i], h.Edges[i+1], closing, barWidth, strings.Repeat("#", n), int(c)); err != nil {
			return err
		}
	}
	return nil
}

// Image formats supported by RenderImage, keyed by file extension.
var imageFormats = map[string]bool{
	".png": true,
	".svg": true,
	".pdf": true,
	".jpg": true,
}

// RenderImage plots a histogram of values and saves it to path. The image
// format is chosen from the file extension.
func RenderImage(path string, values []float64, bins int, title string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if !imageFormats[ext] {
		return fmt.Errorf("unsupported image format %q (valid: png, svg, pdf, jpg)", ext)
	}
	if len(values) == 0 {
		return fmt.Errorf("no samples to plot")
	}
	if bins < 1 {
		bins = DefaultBins
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "final step"
	p.Y.Label.Text = "walks"

	hist, err := plotter.NewHist(plotter.Values(values), bins)
	if err != nil {
		return fmt.Errorf("building histogram plot: %w", err)
	}
	p.Add(hist)

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("saving plot: %w", err)
	}
	return nil
}
