package entity

// SelectedImage is the local file the user picked. Preview is derived from Data
// when the file is selected and replaced together with it.
type SelectedImage struct {
	Name        string
	ContentType string
	Data        []byte
	Preview     string
}

// Box is [x1, y1, x2, y2] in pixel space of the annotated image.
type Box [4]float64

type Detection struct {
	Label      string
	Confidence float64
	Box        Box
}

// DetectionResult is the outcome of one successful submission. Detections keep
// the order the service returned them in.
type DetectionResult struct {
	AnnotatedImage []byte
	AnnotatedType  string
	Detections     []Detection
}

func (r DetectionResult) Count() int {
	return len(r.Detections)
}
