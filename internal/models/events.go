package models

// TranscriptCompleted is published downstream when a job produces a transcript.
type TranscriptCompleted struct {
	EventType string  `json:"eventType"`
	RequestID string  `json:"requestId"`
	Filename  string  `json:"filename"`
	Timestamp int64   `json:"timestamp"`
	Language  string  `json:"language"`
	Duration  float64 `json:"duration"`
	Text      string  `json:"text"`
}

// TranscriptFailed is published downstream when a job ends in a typed error.
type TranscriptFailed struct {
	EventType string `json:"eventType"`
	RequestID string `json:"requestId"`
	Filename  string `json:"filename"`
	Timestamp int64  `json:"timestamp"`
	ErrorKind string `json:"errorKind"`
	Message   string `json:"message"`
}
