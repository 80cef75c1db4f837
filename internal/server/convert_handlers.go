package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/MeKo-Tech/pdfmark/internal/jobs"
	"github.com/MeKo-Tech/pdfmark/internal/store"
)

// convertHandler submits an asynchronous conversion job.
func (s *Server) convertHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req ConvertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.FileID == "" {
		writeError(w, http.StatusBadRequest, "missing file_id")
		return
	}

	taskID, err := s.manager.Submit(req.FileID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "file not found")
		case errors.Is(err, jobs.ErrNotPDF):
			writeError(w, http.StatusBadRequest, "只支持 PDF 文件转换")
		default:
			writeError(w, http.StatusInternalServerError, "failed to submit conversion")
		}
		return
	}

	writeJSON(w, http.StatusOK, ConvertResponse{
		TaskID:  taskID,
		Message: "转换任务已提交",
		FileID:  req.FileID,
	})
}

// convertResultHandler returns the current snapshot of a job.
func (s *Server) convertResultHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	taskID := strings.TrimPrefix(r.URL.Path, "/file/convert2md/result/")
	if taskID == "" {
		writeError(w, http.StatusBadRequest, "missing task id")
		return
	}

	job, err := s.manager.Get(taskID)
	if err != nil {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}

	writeJSON(w, http.StatusOK, taskResult(job))
}
