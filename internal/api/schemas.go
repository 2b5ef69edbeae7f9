package api

import (
	"time"

	"github.com/slicetube/slicetube/internal/history"
)

// Wire contract uses the camelCase field names the web client has always
// sent; startTime/endTime are pointers so a missing field is
// distinguishable from zero.

type TrimRequest struct {
	URL       string   `json:"url"`
	StartTime *float64 `json:"startTime"`
	EndTime   *float64 `json:"endTime"`
	Format    string   `json:"format"`
}

type EstimateRequest struct {
	URL       string   `json:"url"`
	StartTime *float64 `json:"startTime"`
	EndTime   *float64 `json:"endTime"`
	Format    string   `json:"format"`
}

type ResolveRequest struct {
	URL string `json:"url"`
}

type ResolveResponse struct {
	DirectURL string            `json:"directUrl"`
	Headers   map[string]string `json:"headers,omitempty"`
}

type EstimateResponse struct {
	Size  string `json:"size"`
	Bytes int64  `json:"bytes"`
}

type DownloadRequest struct {
	URL string `json:"url"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	UptimeS int64  `json:"uptime_s"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type ExportRecordResponse struct {
	ID        string  `json:"id"`
	URL       string  `json:"url"`
	Platform  string  `json:"platform"`
	StartS    float64 `json:"start_s"`
	EndS      float64 `json:"end_s"`
	Format    string  `json:"format"`
	Status    string  `json:"status"`
	Error     string  `json:"error,omitempty"`
	Bytes     int64   `json:"bytes"`
	Size      string  `json:"size,omitempty"`
	ElapsedMs int64   `json:"elapsed_ms"`
	CreatedAt string  `json:"created_at"`
}

type ExportsResponse struct {
	Exports []ExportRecordResponse `json:"exports"`
}

func ExportToResponse(e *history.Export, size string) ExportRecordResponse {
	return ExportRecordResponse{
		ID:        e.ID,
		URL:       e.URL,
		Platform:  e.Platform,
		StartS:    e.StartSec,
		EndS:      e.EndSec,
		Format:    e.Format,
		Status:    e.Status,
		Error:     e.Error,
		Bytes:     e.Bytes,
		Size:      size,
		ElapsedMs: e.ElapsedMs,
		CreatedAt: e.CreatedAt.Format(time.RFC3339),
	}
}
