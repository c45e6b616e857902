package apperr

// Kind is a machine-readable error kind returned to clients.
type Kind string

// Client input faults (HTTP 4xx, not retryable).
const (
	// KindUnsupportedFormat indicates the uploaded file extension is not supported.
	KindUnsupportedFormat Kind = "UNSUPPORTED_FORMAT"
	// KindPayloadTooLarge indicates the upload exceeds the configured size limit.
	KindPayloadTooLarge Kind = "PAYLOAD_TOO_LARGE"
	// KindInvalidParameter indicates a transcription option failed validation.
	KindInvalidParameter Kind = "INVALID_PARAMETER"
)

// Processing faults (surfaced with detail, never retried automatically).
const (
	// KindDecodeError indicates the audio payload could not be decoded.
	KindDecodeError Kind = "DECODE_ERROR"
	// KindInferenceError indicates the model failed during transcription.
	KindInferenceError Kind = "INFERENCE_ERROR"
)

// Capacity faults (explicitly retryable by the caller).
const (
	// KindServiceOverloaded indicates the wait queue is full.
	KindServiceOverloaded Kind = "SERVICE_OVERLOADED"
	// KindTimeout indicates the job deadline elapsed while queued or running.
	KindTimeout Kind = "TIMEOUT"
)

// Startup fault.
const (
	// KindEngineLoadFailure indicates the model failed to load; readiness stays false.
	KindEngineLoadFailure Kind = "ENGINE_LOAD_FAILURE"
)

var retryableKinds = map[Kind]bool{
	KindServiceOverloaded: true,
	KindTimeout:           true,
}

// IsRetryableKind reports whether callers should retry errors of this kind.
func IsRetryableKind(k Kind) bool {
	return retryableKinds[k]
}
