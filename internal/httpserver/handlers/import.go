package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/MrSnakeDoc/gitmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/gitmark/internal/logger"
)

// DefaultMaxUploadBytes caps an uploaded CSV when deps do not set a limit.
const DefaultMaxUploadBytes = 5 << 20

type importStartedResponse struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`
}

// StartImport accepts a CSV either as the "file" field of a multipart form
// or as the raw request body, and imports it in the background.
func StartImport(d deps.Deps) http.HandlerFunc {
	limit := d.MaxUploadBytes
	if limit <= 0 {
		limit = DefaultMaxUploadBytes
	}

	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, limit)

		data, err := readUpload(r)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "file too large"})
				return
			}
			writeError(w, r, d, fmt.Errorf("%w: %w", errBadRequest, err))
			return
		}

		// The run outlives the request.
		ctx := d.BaseContext
		if ctx == nil {
			ctx = context.Background()
		}
		runID, err := d.Importer.Start(ctx, io.NopCloser(bytes.NewReader(data)))
		if err != nil {
			writeError(w, r, d, err)
			return
		}

		d.Logger.Info("import accepted",
			logger.String("run_id", runID),
			logger.Int("bytes", len(data)))
		writeJSON(w, http.StatusAccepted, importStartedResponse{RunID: runID, Status: "loading"})
	}
}

func ImportStatus(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.Importer.Status())
	}
}

func readUpload(r *http.Request) ([]byte, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return io.ReadAll(r.Body)
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}
