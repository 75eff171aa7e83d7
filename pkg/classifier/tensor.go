package classifier

import "fmt"

// FillTensor unpacks sig into dst as scaled RGB floats in the given layout.
// The signal is pulled one row at a time through Get.
func FillTensor(sig *Signal, layout Layout, scale float32, dst []float32) error {
	w, h := sig.Width(), sig.Height()
	if len(dst) != w*h*3 {
		return fmt.Errorf("%w: tensor holds %d, need %d", ErrSignalLength, len(dst), w*h*3)
	}

	plane := w * h
	row := make([]float32, w)
	for y := 0; y < h; y++ {
		if err := sig.Get(y*w, w, row); err != nil {
			return err
		}
		for x, v := range row {
			r, g, b := Unpack(v)
			i := y*w + x
			switch layout {
			case LayoutNHWC:
				dst[i*3] = float32(r) * scale
				dst[i*3+1] = float32(g) * scale
				dst[i*3+2] = float32(b) * scale
			default:
				dst[i] = float32(r) * scale
				dst[plane+i] = float32(g) * scale
				dst[2*plane+i] = float32(b) * scale
			}
		}
	}
	return nil
}
