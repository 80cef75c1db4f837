package server

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/pdfmark/internal/jobs"
	"github.com/MeKo-Tech/pdfmark/internal/store"
)

// fakeFiles is an in-memory FileStore for handler tests.
type fakeFiles struct {
	files   map[string]store.Metadata
	saveErr error
	nextID  string
}

func newFakeFiles() *fakeFiles {
	return &fakeFiles{files: map[string]store.Metadata{}, nextID: "file-20240101000000-abcd1234"}
}

func (f *fakeFiles) Save(data []byte, originalName string) (store.Metadata, error) {
	if f.saveErr != nil {
		return store.Metadata{}, f.saveErr
	}
	meta := store.Metadata{
		FileID:           f.nextID,
		OriginalFilename: originalName,
		FileSize:         int64(len(data)),
		FileType:         "pdf",
		UploadTime:       time.Now(),
	}
	f.files[meta.FileID] = meta
	return meta, nil
}

func (f *fakeFiles) Info(id string) (store.Metadata, error) {
	meta, ok := f.files[id]
	if !ok {
		return store.Metadata{}, fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	return meta, nil
}

func (f *fakeFiles) Delete(id string) error {
	if _, ok := f.files[id]; !ok {
		return fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	delete(f.files, id)
	return nil
}

func (f *fakeFiles) List() []store.Metadata {
	out := make([]store.Metadata, 0, len(f.files))
	for _, meta := range f.files {
		out = append(out, meta)
	}
	return out
}

// fakeManager is a canned JobManager for handler tests.
type fakeManager struct {
	submitID  string
	submitErr error
	jobs      map[string]jobs.Job
}

func newFakeManager() *fakeManager {
	return &fakeManager{submitID: "task-1", jobs: map[string]jobs.Job{}}
}

func (m *fakeManager) Submit(fileID string) (string, error) {
	if m.submitErr != nil {
		return "", m.submitErr
	}
	return m.submitID, nil
}

func (m *fakeManager) Get(jobID string) (jobs.Job, error) {
	job, ok := m.jobs[jobID]
	if !ok {
		return jobs.Job{}, fmt.Errorf("%w: %s", jobs.ErrNotFound, jobID)
	}
	return job, nil
}

func (m *fakeManager) Watch(ctx context.Context, jobID string, _ time.Duration) (<-chan jobs.Job, error) {
	job, err := m.Get(jobID)
	if err != nil {
		return nil, err
	}
	ch := make(chan jobs.Job, 1)
	ch <- job
	close(ch)
	return ch, nil
}

func newTestServer(files FileStore, manager JobManager, apiKeys ...string) *httptest.Server {
	s := NewServer(Config{CORSOrigins: []string{"*"}, APIKeys: apiKeys}, files, manager)
	mux := http.NewServeMux()
	s.SetupRoutes(mux)
	return httptest.NewServer(mux)
}

// multipartUpload builds a multipart/form-data body with one file field.
func multipartUpload(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}
