// Package server exposes the PDF to Markdown conversion service over
// HTTP: file upload and management, job submission, result polling, and
// a WebSocket progress stream.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/MeKo-Tech/pdfmark/internal/jobs"
	"github.com/MeKo-Tech/pdfmark/internal/store"
)

// FileStore is the upload storage the server manages files through.
// Satisfied by *store.FileStore.
type FileStore interface {
	Save(data []byte, originalName string) (store.Metadata, error)
	Info(id string) (store.Metadata, error)
	Delete(id string) error
	List() []store.Metadata
}

// JobManager runs conversion jobs. Satisfied by *jobs.Manager.
type JobManager interface {
	Submit(fileID string) (string, error)
	Get(jobID string) (jobs.Job, error)
	Watch(ctx context.Context, jobID string, interval time.Duration) (<-chan jobs.Job, error)
}

// Config holds server configuration.
type Config struct {
	Host          string
	Port          int
	CORSOrigins   []string
	APIKeys       []string
	MaxUploadSize int64
}

// Server handles the HTTP surface.
type Server struct {
	cfg     Config
	files   FileStore
	manager JobManager
	apiKeys map[string]bool
}

// NewServer creates a server over the given collaborators.
func NewServer(cfg Config, files FileStore, manager JobManager) *Server {
	if cfg.MaxUploadSize <= 0 {
		cfg.MaxUploadSize = 100 << 20
	}
	keys := make(map[string]bool, len(cfg.APIKeys))
	for _, k := range cfg.APIKeys {
		if k != "" {
			keys[k] = true
		}
	}
	return &Server{cfg: cfg, files: files, manager: manager, apiKeys: keys}
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	StatusCode int    `json:"status_code"`
	Error      string `json:"error"`
}

// FileInfo mirrors the uploaded file fields exposed on the wire.
type FileInfo struct {
	OriginalFilename string `json:"original_filename"`
	FileSize         int64  `json:"file_size"`
	FileType         string `json:"file_type"`
}

// UploadResponse is returned by POST /file/upload.
type UploadResponse struct {
	StatusCode int      `json:"status_code"`
	FileID     string   `json:"file_id"`
	Message    string   `json:"message"`
	FileInfo   FileInfo `json:"file_info"`
}

// ListResponse is returned by GET /file/list.
type ListResponse struct {
	StatusCode int              `json:"status_code"`
	TotalFiles int              `json:"total_files"`
	Files      []store.Metadata `json:"files"`
}

// DeleteResponse is returned by DELETE /file/delete/{file_id}.
type DeleteResponse struct {
	StatusCode int    `json:"status_code"`
	FileID     string `json:"file_id"`
}

// ConvertRequest is the body of POST /file/convert2md.
type ConvertRequest struct {
	FileID string `json:"file_id"`
}

// ConvertResponse is returned by POST /file/convert2md.
type ConvertResponse struct {
	TaskID  string `json:"task_id"`
	Message string `json:"message"`
	FileID  string `json:"file_id"`
}

// ConvertResult carries the output of a completed job.
type ConvertResult struct {
	FileID          string  `json:"file_id"`
	MarkdownContent string  `json:"markdown_content"`
	OutputPath      string  `json:"output_path"`
	ProcessingTime  float64 `json:"processing_time"`
	PagesProcessed  int     `json:"pages_processed"`
	TablesFound     int     `json:"tables_found"`
}

// ConvertTaskResultResponse is returned by the result and WebSocket
// endpoints. Timestamps are Unix seconds.
type ConvertTaskResultResponse struct {
	TaskID    string         `json:"task_id"`
	FileID    string         `json:"file_id"`
	Status    string         `json:"status"`
	Progress  int            `json:"progress"`
	Result    *ConvertResult `json:"result,omitempty"`
	Error     string         `json:"error,omitempty"`
	StartTime *float64       `json:"start_time,omitempty"`
	EndTime   *float64       `json:"end_time,omitempty"`
}

// taskResult converts a job snapshot to its wire form.
func taskResult(job jobs.Job) ConvertTaskResultResponse {
	resp := ConvertTaskResultResponse{
		TaskID:   job.ID,
		FileID:   job.FileID,
		Status:   string(job.State),
		Progress: job.Progress,
		Error:    job.Error,
	}
	if job.Result != nil {
		resp.Result = &ConvertResult{
			FileID:          job.Result.FileID,
			MarkdownContent: job.Result.Markdown,
			OutputPath:      job.Result.MarkdownPath,
			ProcessingTime:  job.Result.ProcessingSeconds,
			PagesProcessed:  job.Result.PagesProcessed,
			TablesFound:     job.Result.TablesFound,
		}
	}
	if !job.StartedAt.IsZero() {
		resp.StartTime = unixSeconds(job.StartedAt)
	}
	if !job.FinishedAt.IsZero() {
		resp.EndTime = unixSeconds(job.FinishedAt)
	}
	return resp
}

func unixSeconds(t time.Time) *float64 {
	s := float64(t.UnixNano()) / float64(time.Second)
	return &s
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{StatusCode: status, Error: message})
}
