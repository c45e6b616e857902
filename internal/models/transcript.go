// Package models defines the wire shapes returned by the transcription API.
package models

// Word is a single word with time alignment and recognition probability.
type Word struct {
	Start       float64 `json:"start"`
	End         float64 `json:"end"`
	Word        string  `json:"word"`
	Probability float64 `json:"probability"`
}

// Segment is a time-aligned span of transcribed speech. Words is present only
// when word timestamps were requested; it is omitted entirely otherwise.
type Segment struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
	Words []Word  `json:"words,omitempty"`
}

// Transcript is the full result for one audio file.
type Transcript struct {
	Text                string    `json:"text"`
	Language            string    `json:"language"`
	LanguageProbability float64   `json:"language_probability"`
	Duration            float64   `json:"duration,omitempty"`
	Segments            []Segment `json:"segments"`
}

// ErrorBody is the JSON error shape attached to failed requests and failed
// batch entries.
type ErrorBody struct {
	Kind      string `json:"kind"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// ErrorResponse wraps an ErrorBody for single-file responses.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// BatchEntry is one per-file outcome in a batch response. Exactly one of
// Transcript or Error is set.
type BatchEntry struct {
	Filename   string      `json:"filename"`
	Transcript *Transcript `json:"transcript,omitempty"`
	Error      *ErrorBody  `json:"error,omitempty"`
}

// BatchResponse holds per-file outcomes positionally aligned with the
// submitted file order.
type BatchResponse struct {
	Results []BatchEntry `json:"results"`
}
