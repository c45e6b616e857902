// Package ingest receives uploaded audio bytes, enforces size and format
// constraints, and materializes them as a temporary file the engine can
// decode. Every AudioSource owns its temporary storage exclusively and
// releases it exactly once, on every exit path.
package ingest

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"audio-transcription-service/internal/apperr"
	"audio-transcription-service/internal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// AudioSource is a materialized upload awaiting transcription.
type AudioSource struct {
	Path     string // temporary file location
	Filename string // declared upload filename
	Ext      string // lowercased extension, including the dot
	Size     int64  // bytes written

	releaseOnce sync.Once
}

// Release removes the temporary file. Safe to call multiple times; only the
// first call takes effect.
func (s *AudioSource) Release() {
	s.releaseOnce.Do(func() {
		if s.Path == "" {
			return
		}
		if err := os.Remove(s.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Warn().Err(err).Str("path", s.Path).Msg("failed to remove temporary audio file")
		}
	})
}

// Ingest validates and stores uploads.
type Ingest struct {
	cfg    config.UploadConfig
	logger zerolog.Logger
}

// New creates an Ingest writing temporary files under cfg.TempDir.
func New(cfg config.UploadConfig) *Ingest {
	return &Ingest{
		cfg:    cfg,
		logger: log.With().Str("component", "ingest").Logger(),
	}
}

// Store validates the upload and writes it to a scoped temporary file.
// On any error no temporary storage is left behind.
func (i *Ingest) Store(r io.Reader, declaredFilename string, declaredSize int64) (*AudioSource, error) {
	ext := strings.ToLower(filepath.Ext(declaredFilename))
	if !allowedExtension(ext) {
		return nil, apperr.UnsupportedFormat(ext, config.AllowedExtensions)
	}
	if declaredSize > i.cfg.MaxFileSize {
		return nil, apperr.PayloadTooLarge(declaredSize, i.cfg.MaxFileSize)
	}

	f, err := os.CreateTemp(i.cfg.TempDir, "upload-*"+ext)
	if err != nil {
		return nil, fmt.Errorf("create temporary file: %w", err)
	}

	// The declared size is advisory; count what actually arrives.
	n, err := io.Copy(f, io.LimitReader(r, i.cfg.MaxFileSize+1))
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(f.Name())
		return nil, fmt.Errorf("write upload: %w", err)
	}
	if n > i.cfg.MaxFileSize {
		os.Remove(f.Name())
		return nil, apperr.PayloadTooLarge(n, i.cfg.MaxFileSize)
	}
	if n == 0 {
		os.Remove(f.Name())
		return nil, apperr.DecodeError(errors.New("empty audio payload"))
	}

	i.logger.Debug().
		Str("filename", declaredFilename).
		Int64("bytes", n).
		Msg("upload stored")

	return &AudioSource{
		Path:     f.Name(),
		Filename: declaredFilename,
		Ext:      ext,
		Size:     n,
	}, nil
}

func allowedExtension(ext string) bool {
	for _, a := range config.AllowedExtensions {
		if ext == a {
			return true
		}
	}
	return false
}
