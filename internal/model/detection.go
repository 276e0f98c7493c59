package model

// DetectionRequest identifies the image to analyse. Exactly one of ImageURL
// or Image must be set.
type DetectionRequest struct {
	ImageURL string `json:"image_url" validate:"omitempty,url"`
	Image    []byte `json:"-"`
}

// Prediction is one detected object.
type Prediction struct {
	Class      string  `json:"class"`
	Confidence float64 `json:"confidence"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
}

// DetectionResult is the reshaped inference output.
type DetectionResult struct {
	Predictions []Prediction   `json:"predictions"`
	Counts      map[string]int `json:"counts"`
	Total       int            `json:"total"`
	Cached      bool           `json:"cached"`
	Raw         any            `json:"raw,omitempty"`
}
