// Package assemble maps engine-native output into the stable transcript
// shape returned to clients.
package assemble

import (
	"math"
	"strings"

	"audio-transcription-service/internal/models"
	"audio-transcription-service/internal/service/engine"
)

// secondsPrecision is the fixed precision for all time values, in decimal
// places (milliseconds).
const secondsPrecision = 3

// Transcript converts a raw engine result. Word timings are attached only
// when they were requested; segments without requested words carry no words
// field at all rather than an empty list.
func Transcript(raw *engine.Result, wordTimestamps bool) *models.Transcript {
	var text strings.Builder
	segments := make([]models.Segment, 0, len(raw.Segments))

	for i, seg := range raw.Segments {
		out := models.Segment{
			ID:    i,
			Start: round(seg.Start),
			End:   round(seg.End),
			Text:  strings.TrimSpace(seg.Text),
		}
		if wordTimestamps {
			out.Words = make([]models.Word, 0, len(seg.Words))
			for _, w := range seg.Words {
				out.Words = append(out.Words, models.Word{
					Start:       round(w.Start),
					End:         round(w.End),
					Word:        w.Word,
					Probability: round(w.Probability),
				})
			}
		}
		segments = append(segments, out)
		if i > 0 {
			text.WriteByte(' ')
		}
		text.WriteString(out.Text)
	}

	return &models.Transcript{
		Text:                strings.TrimSpace(text.String()),
		Language:            raw.Language,
		LanguageProbability: round(raw.LanguageProbability),
		Duration:            round(raw.Duration),
		Segments:            segments,
	}
}

func round(v float64) float64 {
	pow := math.Pow10(secondsPrecision)
	return math.Round(v*pow) / pow
}
