// Package classifier defines the contract between the capture loop and an
// opaque, pre-trained image classifier.
//
// The loop never knows how a model is executed. It adapts every frame into a
// Signal, hands the Signal to a Classifier through Invoke, and reduces the
// filled Result to a single label with Top:
//
//	sig := classifier.NewSignal(c.InputWidth(), c.InputHeight())
//	res := classifier.NewResult(c.Labels())
//
//	// ... fill sig from a frame ...
//
//	if err := classifier.Invoke(c, sig, res, false); err != nil {
//	    // skip this frame
//	}
//	idx, conf := classifier.Top(res)
//
// Engines live in sub-packages (dnn, onnx). Tests substitute Mock.
package classifier

// Classifier is an inference engine with a fixed input size and label table.
// All implementations must satisfy this interface.
type Classifier interface {
	// Classify runs the model on sig and writes one score per label into res.
	// res arrives reset to the label table; implementations overwrite every score
	// and the timing. When debug is set the engine may log internals.
	Classify(sig *Signal, res *Result, debug bool) error

	// InputWidth is the fixed model input width in pixels.
	InputWidth() int

	// InputHeight is the fixed model input height in pixels.
	InputHeight() int

	// Labels is the label table, indexed identically to Result.Classification.
	Labels() []string

	// Info describes the deployed model.
	Info() Info

	// Close releases engine resources.
	Close() error
}

// Info describes a deployed model.
type Info struct {
	Project string `json:"project"`
	Version string `json:"version"`
	Engine  string `json:"engine"`
}
