// Package params validates and normalizes per-request transcription options.
// Resolution is pure: fields absent from the request take the service default,
// fields present must satisfy their domain constraint or the request fails
// with the offending field named. Nothing is ever silently clamped.
package params

import (
	"strconv"
	"strings"

	"audio-transcription-service/internal/apperr"
	"audio-transcription-service/internal/config"
)

// Options is the immutable, resolved option set handed to the engine.
type Options struct {
	BeamSize       int
	Language       string // ISO code, or "auto" for detection
	WordTimestamps bool
	VADFilter      bool
}

// Raw holds the option fields as submitted in the multipart form.
// Empty string means the field was absent.
type Raw struct {
	BeamSize       string
	Language       string
	WordTimestamps string
	VADFilter      string
}

// languageCodes is the set of languages the whisper family of models accepts.
var languageCodes = map[string]bool{
	"af": true, "ar": true, "az": true, "be": true, "bg": true, "bn": true,
	"bs": true, "ca": true, "cs": true, "cy": true, "da": true, "de": true,
	"el": true, "en": true, "es": true, "et": true, "fa": true, "fi": true,
	"fr": true, "gl": true, "he": true, "hi": true, "hr": true, "hu": true,
	"hy": true, "id": true, "is": true, "it": true, "ja": true, "kk": true,
	"kn": true, "ko": true, "lt": true, "lv": true, "mk": true, "mr": true,
	"ms": true, "ne": true, "nl": true, "no": true, "pl": true, "pt": true,
	"ro": true, "ru": true, "sk": true, "sl": true, "sr": true, "sv": true,
	"sw": true, "ta": true, "th": true, "tl": true, "tr": true, "uk": true,
	"ur": true, "vi": true, "zh": true,
}

// Resolve merges raw request fields over service defaults and validates the
// result. Violations yield an InvalidParameter error naming the field.
func Resolve(raw Raw, defaults config.DefaultsConfig) (Options, error) {
	opts := Options{
		BeamSize:       defaults.BeamSize,
		Language:       defaults.Language,
		WordTimestamps: defaults.WordTimestamps,
		VADFilter:      defaults.VADFilter,
	}

	if raw.BeamSize != "" {
		n, err := strconv.Atoi(raw.BeamSize)
		if err != nil {
			return Options{}, apperr.InvalidParameter("beam_size", "must be an integer")
		}
		if n < 1 {
			return Options{}, apperr.InvalidParameter("beam_size", "must be positive")
		}
		if n > defaults.MaxBeamSize {
			return Options{}, apperr.InvalidParameter("beam_size",
				"must not exceed "+strconv.Itoa(defaults.MaxBeamSize))
		}
		opts.BeamSize = n
	}

	if raw.Language != "" {
		lang := strings.ToLower(strings.TrimSpace(raw.Language))
		if lang != "auto" && !languageCodes[lang] {
			return Options{}, apperr.InvalidParameter("language",
				"must be \"auto\" or a recognized ISO language code")
		}
		opts.Language = lang
	}

	if raw.WordTimestamps != "" {
		b, err := strconv.ParseBool(raw.WordTimestamps)
		if err != nil {
			return Options{}, apperr.InvalidParameter("word_timestamps", "must be a boolean")
		}
		opts.WordTimestamps = b
	}

	if raw.VADFilter != "" {
		b, err := strconv.ParseBool(raw.VADFilter)
		if err != nil {
			return Options{}, apperr.InvalidParameter("vad_filter", "must be a boolean")
		}
		opts.VADFilter = b
	}

	return opts, nil
}
