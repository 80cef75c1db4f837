package server

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/MeKo-Tech/pdfmark/internal/store"
)

// uploadHandler stores a multipart upload and returns its file id.
func (s *Server) uploadHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadSize)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "failed to parse form data")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file provided")
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read upload")
		return
	}

	meta, err := s.files.Save(data, header.Filename)
	if err != nil {
		if errors.Is(err, store.ErrTypeNotAllowed) {
			writeError(w, http.StatusBadRequest, "文件类型不允许")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to save upload")
		return
	}

	uploadSizeBytes.Observe(float64(meta.FileSize))

	writeJSON(w, http.StatusOK, UploadResponse{
		StatusCode: http.StatusOK,
		FileID:     meta.FileID,
		Message:    "文件上传成功",
		FileInfo: FileInfo{
			OriginalFilename: meta.OriginalFilename,
			FileSize:         meta.FileSize,
			FileType:         meta.FileType,
		},
	})
}

// fileInfoHandler returns the metadata of one stored file.
func (s *Server) fileInfoHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/file/info/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing file id")
		return
	}

	meta, err := s.files.Info(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

// fileListHandler returns all stored files.
func (s *Server) fileListHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	files := s.files.List()
	writeJSON(w, http.StatusOK, ListResponse{
		StatusCode: http.StatusOK,
		TotalFiles: len(files),
		Files:      files,
	})
}

// fileDeleteHandler removes a stored file.
func (s *Server) fileDeleteHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/file/delete/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing file id")
		return
	}

	if err := s.files.Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "file not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete file")
		return
	}
	writeJSON(w, http.StatusOK, DeleteResponse{StatusCode: http.StatusOK, FileID: id})
}
