package httpapi

import (
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"time"

	"audio-transcription-service/internal/apperr"
	"audio-transcription-service/internal/models"
	"audio-transcription-service/internal/service/assemble"
	"audio-transcription-service/internal/service/batch"
	"audio-transcription-service/internal/service/ingest"
	"audio-transcription-service/internal/service/params"

	"github.com/go-chi/chi/v5/middleware"
)

// multipartMemory bounds how much of a parsed form is held in memory before
// spilling to disk.
const multipartMemory = 32 << 20

func (a *API) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "audio transcription service is running",
		"model":   a.cfg.Whisper.Model,
	})
}

func (a *API) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		a.writeError(w, apperr.InvalidParameter("file", "request is not valid multipart form data"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	fh, err := singleFile(r)
	if err != nil {
		a.writeError(w, err)
		return
	}

	opts, err := a.resolveOptions(r)
	if err != nil {
		a.writeError(w, err)
		return
	}

	source, err := a.storeUpload(fh)
	if err != nil {
		a.writeError(w, err)
		return
	}
	defer source.Release()

	a.logger.Info().
		Str("requestId", reqID).
		Str("filename", source.Filename).
		Int64("bytes", source.Size).
		Msg("transcription requested")

	raw, err := a.sched.Transcribe(r.Context(), source.Path, opts)
	if err != nil {
		a.publishFailed(reqID, source.Filename, err)
		a.writeError(w, err)
		return
	}

	transcript := assemble.Transcript(raw, opts.WordTimestamps)
	a.publishCompleted(reqID, source.Filename, transcript)
	writeJSON(w, http.StatusOK, transcript)
}

func (a *API) handleTranscribeBatch(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		a.writeError(w, apperr.InvalidParameter("file", "request is not valid multipart form data"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		a.writeError(w, apperr.InvalidParameter("file", "at least one file is required"))
		return
	}

	opts, err := a.resolveOptions(r)
	if err != nil {
		a.writeError(w, err)
		return
	}

	// Global engine load failure aborts before any submission.
	if loadErr := a.handle.LoadErr(); loadErr != nil {
		a.writeError(w, apperr.EngineLoadFailure(loadErr))
		return
	}

	inputs := make([]batch.Input, len(files))
	for i, fh := range files {
		inputs[i].Filename = fh.Filename
		source, err := a.storeUpload(fh)
		if err != nil {
			inputs[i].Err = err
			continue
		}
		inputs[i].Source = source
	}

	a.logger.Info().
		Str("requestId", reqID).
		Int("files", len(inputs)).
		Msg("batch transcription requested")

	outcomes := a.batch.Run(r.Context(), inputs, opts)

	resp := models.BatchResponse{Results: make([]models.BatchEntry, len(outcomes))}
	admitted := false
	for i, out := range outcomes {
		entry := models.BatchEntry{Filename: out.Filename}
		if out.Err != nil {
			e := apperr.From(out.Err)
			entry.Error = &models.ErrorBody{
				Kind:      string(e.Kind),
				Message:   e.Message,
				Retryable: e.Retryable,
			}
			if e.Kind != apperr.KindServiceOverloaded {
				admitted = true
			}
			a.publishFailed(reqID, out.Filename, out.Err)
		} else {
			entry.Transcript = assemble.Transcript(out.Result, opts.WordTimestamps)
			admitted = true
			a.publishCompleted(reqID, out.Filename, entry.Transcript)
		}
		resp.Results[i] = entry
	}

	// The batch as a whole fails only when not one member could be admitted.
	if !admitted {
		a.writeError(w, apperr.ServiceOverloaded())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) resolveOptions(r *http.Request) (params.Options, error) {
	return params.Resolve(params.Raw{
		BeamSize:       r.FormValue("beam_size"),
		Language:       r.FormValue("language"),
		WordTimestamps: r.FormValue("word_timestamps"),
		VADFilter:      r.FormValue("vad_filter"),
	}, a.cfg.Defaults)
}

// storeUpload opens one multipart file and hands it to ingest.
func (a *API) storeUpload(fh *multipart.FileHeader) (*ingest.AudioSource, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, apperr.DecodeError(err)
	}
	defer f.Close()

	source, err := a.ingest.Store(f, fh.Filename, fh.Size)
	if err != nil {
		if e, ok := apperr.As(err); ok {
			a.metrics.RecordUploadRejected(string(e.Kind))
		}
		return nil, err
	}
	a.metrics.RecordUploadAccepted(source.Size)
	return source, nil
}

func singleFile(r *http.Request) (*multipart.FileHeader, error) {
	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		return nil, apperr.InvalidParameter("file", "a file is required")
	}
	return files[0], nil
}

func (a *API) publishCompleted(reqID, filename string, t *models.Transcript) {
	ev := models.TranscriptCompleted{
		EventType: "audio.transcript.completed",
		RequestID: reqID,
		Filename:  filename,
		Timestamp: time.Now().UnixMilli(),
		Language:  t.Language,
		Duration:  t.Duration,
		Text:      t.Text,
	}
	if err := a.publisher.PublishCompleted(context.Background(), reqID, ev); err != nil {
		a.logger.Error().Err(err).Str("requestId", reqID).Msg("failed to publish completed event")
	}
}

func (a *API) publishFailed(reqID, filename string, cause error) {
	e := apperr.From(cause)
	ev := models.TranscriptFailed{
		EventType: "audio.transcript.failed",
		RequestID: reqID,
		Filename:  filename,
		Timestamp: time.Now().UnixMilli(),
		ErrorKind: string(e.Kind),
		Message:   e.Message,
	}
	if err := a.publisher.PublishFailed(context.Background(), reqID, ev); err != nil {
		a.logger.Error().Err(err).Str("requestId", reqID).Msg("failed to publish failed event")
	}
}

func (a *API) writeError(w http.ResponseWriter, err error) {
	e := apperr.From(err)
	writeJSON(w, e.HTTPStatus, models.ErrorResponse{Error: models.ErrorBody{
		Kind:      string(e.Kind),
		Message:   e.Message,
		Retryable: e.Retryable,
	}})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
