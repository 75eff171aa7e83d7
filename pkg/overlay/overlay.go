// Package overlay renders classification results onto video frames.
package overlay

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/teslashibe/go-liveclass/pkg/classifier"
	"gocv.io/x/gocv"
)

// Percent converts a confidence to whole percent, truncating.
func Percent(confidence float32) int {
	return int(confidence * 100)
}

// TopText formats the top pick as "label (NN%)".
func TopText(label string, confidence float32) string {
	return fmt.Sprintf("%s (%d%%)", label, Percent(confidence))
}

// EntryText formats one label of the full list as "label: NN%".
func EntryText(label string, confidence float32) string {
	return fmt.Sprintf("%s: %d%%", label, Percent(confidence))
}

// TimingMillis sums feature extraction and model time, rounded to the nearest ms.
func TimingMillis(t classifier.Timing) int64 {
	us := t.DSPMicros() + t.ClassificationMicros()
	return int64(math.Round(float64(us) / 1000))
}

// TimingText formats the inference time as "Inference: N ms".
func TimingText(t classifier.Timing) string {
	return fmt.Sprintf("Inference: %d ms", TimingMillis(t))
}

// Line is one piece of text to draw.
type Line struct {
	Text      string
	Org       image.Point
	Scale     float64
	Color     color.RGBA
	Thickness int
}

// Layout holds positions, sizes and colors of the overlay.
type Layout struct {
	Font gocv.HersheyFont

	// Top pick with a filled box behind it
	BoxOrigin    image.Point
	BoxPadding   image.Point // added to the text size for the far corner
	TopOrigin    image.Point
	TopScale     float64
	TopThickness int

	// Per-label list
	ListX         int
	ListY         int
	ListStep      int
	ListScale     float64
	ListThickness int

	// Timing line, placed TimingGap below the end of the list
	TimingGap       int
	TimingScale     float64
	TimingThickness int

	Background color.RGBA
	Highlight  color.RGBA
	Muted      color.RGBA
	Info       color.RGBA
}

// DefaultLayout returns the standard overlay used on the live window.
func DefaultLayout() Layout {
	return Layout{
		Font: gocv.FontHersheySimplex,

		BoxOrigin:    image.Pt(10, 10),
		BoxPadding:   image.Pt(20, 50),
		TopOrigin:    image.Pt(15, 40),
		TopScale:     1.0,
		TopThickness: 2,

		ListX:         10,
		ListY:         100,
		ListStep:      30,
		ListScale:     0.6,
		ListThickness: 2,

		TimingGap:       20,
		TimingScale:     0.5,
		TimingThickness: 1,

		Background: color.RGBA{0, 0, 0, 0},
		Highlight:  color.RGBA{0, 255, 0, 0},
		Muted:      color.RGBA{200, 200, 200, 0},
		Info:       color.RGBA{255, 255, 255, 0},
	}
}

// Lines computes every text line for res with top as the selected label.
// The first line is the top pick, then one line per label, then timing.
func (l Layout) Lines(res *classifier.Result, top int) []Line {
	lines := make([]Line, 0, len(res.Classification)+2)

	var topLabel string
	var topConf float32
	if top >= 0 && top < len(res.Classification) {
		topLabel = res.Classification[top].Label
		topConf = res.Classification[top].Value
	}
	lines = append(lines, Line{
		Text:      TopText(topLabel, topConf),
		Org:       l.TopOrigin,
		Scale:     l.TopScale,
		Color:     l.Highlight,
		Thickness: l.TopThickness,
	})

	y := l.ListY
	for i, s := range res.Classification {
		c := l.Muted
		if i == top {
			c = l.Highlight
		}
		lines = append(lines, Line{
			Text:      EntryText(s.Label, s.Value),
			Org:       image.Pt(l.ListX, y),
			Scale:     l.ListScale,
			Color:     c,
			Thickness: l.ListThickness,
		})
		y += l.ListStep
	}

	lines = append(lines, Line{
		Text:      TimingText(res.Timing),
		Org:       image.Pt(l.ListX, y+l.TimingGap),
		Scale:     l.TimingScale,
		Color:     l.Info,
		Thickness: l.TimingThickness,
	})
	return lines
}

// Draw renders res onto frame, which should be the original unresized capture.
func (l Layout) Draw(frame *gocv.Mat, res *classifier.Result, top int) {
	lines := l.Lines(res, top)

	head := lines[0]
	size := gocv.GetTextSize(head.Text, l.Font, head.Scale, head.Thickness)
	box := image.Rectangle{
		Min: l.BoxOrigin,
		Max: image.Pt(l.BoxPadding.X+size.X, l.BoxPadding.Y+size.Y),
	}
	gocv.Rectangle(frame, box, l.Background, -1)

	for _, ln := range lines {
		gocv.PutText(frame, ln.Text, ln.Org, l.Font, ln.Scale, ln.Color, ln.Thickness)
	}
}

// Draw renders res onto frame with the default layout.
func Draw(frame *gocv.Mat, res *classifier.Result, top int) {
	DefaultLayout().Draw(frame, res, top)
}
