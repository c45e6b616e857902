package httpapi

import (
	"net/http"

	"audio-transcription-service/internal/config"
	"audio-transcription-service/internal/service/engine"
)

// healthResponse mirrors the service's configured engine and capacity.
type healthResponse struct {
	Status        string           `json:"status"`
	Model         string           `json:"model"`
	Device        string           `json:"device"`
	ComputeType   string           `json:"compute_type"`
	ModelInfo     config.ModelInfo `json:"model_info"`
	MaxFileSizeMB int64            `json:"max_file_size_mb"`
	Workers       int              `json:"workers"`
	QueueDepth    int              `json:"queue_depth"`
	QueueCapacity int              `json:"queue_capacity"`
}

// handleHealth reports liveness and readiness. Ready only once the engine
// has completed loading; a failed load leaves readiness false for good.
func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	workers, queueCap := a.sched.Capacity()
	resp := healthResponse{
		Model:         a.cfg.Whisper.Model,
		Device:        a.cfg.Whisper.Device,
		ComputeType:   a.cfg.Whisper.ComputeType,
		ModelInfo:     a.cfg.ModelInfo(),
		MaxFileSizeMB: a.cfg.Upload.MaxFileSize / (1024 * 1024),
		Workers:       workers,
		QueueDepth:    a.sched.QueueDepth(),
		QueueCapacity: queueCap,
	}

	status := http.StatusOK
	switch a.handle.Status() {
	case engine.StatusReady:
		resp.Status = "healthy"
	case engine.StatusLoading:
		resp.Status = "loading"
		status = http.StatusServiceUnavailable
	case engine.StatusFailed:
		resp.Status = "unavailable"
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, resp)
}
