package pipeline

import (
	"image"

	"github.com/teslashibe/go-liveclass/pkg/adapter"
	"github.com/teslashibe/go-liveclass/pkg/classifier"
	"github.com/teslashibe/go-liveclass/pkg/overlay"
)

// Still is the classification of a single image.
type Still struct {
	Result     *classifier.Result
	Top        int
	Label      string
	Confidence float32
}

// ClassifyImage adapts img with the pure-Go path, invokes c once and reduces
// the result. It does not touch OpenCV, so it works without a display.
func ClassifyImage(c classifier.Classifier, img image.Image, debug bool) (*Still, error) {
	sig := adapter.AdaptImage(img, c.InputWidth(), c.InputHeight())
	res := classifier.NewResult(c.Labels())
	if err := classifier.Invoke(c, sig, res, debug); err != nil {
		return nil, err
	}

	s := &Still{Result: res}
	s.Top, s.Confidence = classifier.Top(res)
	if s.Top < len(res.Classification) {
		s.Label = res.Classification[s.Top].Label
	}
	return s, nil
}

// Lines renders the same text the video overlay shows: the top pick, every
// label, then the inference time.
func (s *Still) Lines() []string {
	lines := make([]string, 0, len(s.Result.Classification)+2)
	lines = append(lines, overlay.TopText(s.Label, s.Confidence))
	for _, sc := range s.Result.Classification {
		lines = append(lines, overlay.EntryText(sc.Label, sc.Value))
	}
	return append(lines, overlay.TimingText(s.Result.Timing))
}
