package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"

	"github.com/slicetube/slicetube/internal/history"
	"github.com/slicetube/slicetube/internal/media"
	"github.com/slicetube/slicetube/internal/platform"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler(cfg))

	r.Post("/api/get-direct-url", resolveHandler(cfg))
	r.Post("/api/size-estimate", estimateHandler(cfg))
	r.Post("/api/trim", trimHandler(cfg))
	r.Post("/api/download", downloadHandler(cfg))
	r.Get("/api/proxy-video", proxyHandler(cfg))
	r.Options("/api/proxy-video", proxyPreflightHandler())
	r.Get("/api/exports", listExportsHandler(cfg))

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Version: "0.1.0",
			UptimeS: uptime,
		})
	}
}

func resolveHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ResolveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.URL == "" {
			WriteError(w, http.StatusBadRequest, "url is required", "BAD_REQUEST")
			return
		}

		ref, ok := platform.Classify(req.URL)
		if !ok {
			WriteError(w, http.StatusBadRequest, "unsupported video URL", "BAD_REQUEST")
			return
		}

		src, err := cfg.Locator.Locate(r.Context(), ref, media.PurposePreview)
		if err != nil {
			writePipelineError(w, err)
			return
		}

		WriteJSON(w, http.StatusOK, ResolveResponse{
			DirectURL: src.URL,
			Headers:   src.Headers,
		})
	}
}

func estimateHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req EstimateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		ref, rng, format, ok := validateTrimParams(w, req.URL, req.StartTime, req.EndTime, req.Format)
		if !ok {
			return
		}

		est, err := cfg.Estimator.Estimate(r.Context(), ref, rng, format)
		if err != nil {
			writePipelineError(w, err)
			return
		}

		WriteJSON(w, http.StatusOK, EstimateResponse{Size: est.Size, Bytes: est.Bytes})
	}
}

func trimHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TrimRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		ref, rng, format, ok := validateTrimParams(w, req.URL, req.StartTime, req.EndTime, req.Format)
		if !ok {
			return
		}

		record := beginRecord(r, cfg, ref, rng, format)
		start := time.Now()

		artifact, err := cfg.Exporter.Export(r.Context(), ref, rng, format)
		if err != nil {
			finishRecord(r, cfg, record, history.StatusFailed, err.Error(), 0, time.Since(start))
			writePipelineError(w, err)
			return
		}

		finishRecord(r, cfg, record, history.StatusCompleted, "", int64(len(artifact.Data)), time.Since(start))

		w.Header().Set("Content-Type", artifact.ContentType)
		w.Header().Set("Content-Length", fmt.Sprintf("%d", len(artifact.Data)))
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.Filename))
		w.WriteHeader(http.StatusOK)
		w.Write(artifact.Data)
	}
}

// downloadHandler materializes an opaque-platform source in full for
// preview playback; the file exists only for the lifetime of the response.
func downloadHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DownloadRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.URL == "" {
			WriteError(w, http.StatusBadRequest, "url is required", "BAD_REQUEST")
			return
		}

		ref, ok := platform.Classify(req.URL)
		if !ok {
			WriteError(w, http.StatusBadRequest, "unsupported video URL", "BAD_REQUEST")
			return
		}
		if !ref.IsOpaque() {
			WriteError(w, http.StatusBadRequest, "platform supports direct playback", "BAD_REQUEST")
			return
		}

		src, err := cfg.Locator.Locate(r.Context(), ref, media.PurposeExport)
		if err != nil {
			writePipelineError(w, err)
			return
		}
		defer os.Remove(src.Path)

		file, err := os.Open(src.Path)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "downloaded file unavailable", "INTERNAL_ERROR")
			return
		}
		defer file.Close()

		stat, err := file.Stat()
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "downloaded file unavailable", "INTERNAL_ERROR")
			return
		}

		w.Header().Set("Content-Type", "video/mp4")
		w.Header().Set("Content-Length", fmt.Sprintf("%d", stat.Size()))
		w.WriteHeader(http.StatusOK)
		io.Copy(w, file)
	}
}

func listExportsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.History == nil {
			WriteJSON(w, http.StatusOK, ExportsResponse{Exports: []ExportRecordResponse{}})
			return
		}

		exports, err := cfg.History.ListExports(r.Context(), 50)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list exports", "INTERNAL_ERROR")
			return
		}

		resp := ExportsResponse{Exports: make([]ExportRecordResponse, len(exports))}
		for i, e := range exports {
			size := ""
			if e.Bytes > 0 {
				size = humanize.Bytes(uint64(e.Bytes))
			}
			resp.Exports[i] = ExportToResponse(e, size)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

// validateTrimParams applies the shared InputError checks for estimate and
// trim requests, writing the error response itself on failure.
func validateTrimParams(w http.ResponseWriter, url string, startTime, endTime *float64, formatStr string) (platform.VideoReference, media.TimeRange, media.Format, bool) {
	var zeroRef platform.VideoReference
	var zeroRng media.TimeRange

	if url == "" || startTime == nil || endTime == nil {
		WriteError(w, http.StatusBadRequest, "missing required parameters", "BAD_REQUEST")
		return zeroRef, zeroRng, "", false
	}

	ref, ok := platform.Classify(url)
	if !ok {
		WriteError(w, http.StatusBadRequest, "unsupported video URL", "BAD_REQUEST")
		return zeroRef, zeroRng, "", false
	}

	format, ok := media.ParseFormat(formatStr)
	if !ok {
		WriteError(w, http.StatusBadRequest, "format must be video or audio", "BAD_REQUEST")
		return zeroRef, zeroRng, "", false
	}

	rng := media.TimeRange{Start: *startTime, End: *endTime}
	if rng.Duration() <= 0 {
		WriteError(w, http.StatusBadRequest, "endTime must be greater than startTime", "BAD_REQUEST")
		return zeroRef, zeroRng, "", false
	}

	return ref, rng, format, true
}

func beginRecord(r *http.Request, cfg ServerConfig, ref platform.VideoReference, rng media.TimeRange, format media.Format) *history.Export {
	if cfg.History == nil {
		return nil
	}
	now := time.Now().UTC()
	record := &history.Export{
		ID:        history.NewID(),
		URL:       ref.RawURL,
		Platform:  string(ref.Platform),
		StartSec:  rng.Start,
		EndSec:    rng.End,
		Format:    string(format),
		Status:    history.StatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := cfg.History.CreateExport(r.Context(), record); err != nil {
		cfg.Logger.Warn("failed to record export start", "error", err)
		return nil
	}
	return record
}

func finishRecord(r *http.Request, cfg ServerConfig, record *history.Export, status, errMsg string, bytes int64, elapsed time.Duration) {
	if record == nil || cfg.History == nil {
		return
	}
	if err := cfg.History.FinishExport(r.Context(), record.ID, status, errMsg, bytes, elapsed.Milliseconds()); err != nil {
		cfg.Logger.Warn("failed to record export result", "error", err)
	}
}

// writePipelineError maps the pipeline's typed errors onto the wire
// contract: user-facing message plus a stage code, full detail stays in
// the logs.
func writePipelineError(w http.ResponseWriter, err error) {
	var locErr *media.LocatorError
	var estErr *media.EstimateError
	var expErr *media.ExportError
	switch {
	case errors.As(err, &locErr):
		WriteError(w, http.StatusInternalServerError, locErr.Error(), "LOCATOR_ERROR")
	case errors.As(err, &estErr):
		WriteError(w, http.StatusInternalServerError, estErr.Error(), "ESTIMATE_ERROR")
	case errors.As(err, &expErr):
		WriteError(w, http.StatusInternalServerError, expErr.Error(), "EXPORT_ERROR")
	default:
		WriteError(w, http.StatusInternalServerError, "error processing video", "INTERNAL_ERROR")
	}
}
