package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/pdfmark/internal/jobs"
	"github.com/MeKo-Tech/pdfmark/internal/store"
)

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	return resp
}

func TestConvert_Submits(t *testing.T) {
	manager := newFakeManager()
	manager.submitID = "task-42"
	ts := newTestServer(newFakeFiles(), manager)
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/file/convert2md", `{"file_id":"file-1"}`)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got ConvertResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "task-42", got.TaskID)
	assert.Equal(t, "file-1", got.FileID)
	assert.NotEmpty(t, got.Message)
}

func TestConvert_UnknownFile(t *testing.T) {
	manager := newFakeManager()
	manager.submitErr = store.ErrNotFound
	ts := newTestServer(newFakeFiles(), manager)
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/file/convert2md", `{"file_id":"file-doesnotexist"}`)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestConvert_NonPDF(t *testing.T) {
	manager := newFakeManager()
	manager.submitErr = jobs.ErrNotPDF
	ts := newTestServer(newFakeFiles(), manager)
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/file/convert2md", `{"file_id":"file-1"}`)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestConvert_BadBody(t *testing.T) {
	ts := newTestServer(newFakeFiles(), newFakeManager())
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/file/convert2md", "{not json")
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp2 := postJSON(t, ts.URL+"/file/convert2md", "{}")
	defer func() { _ = resp2.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)
}

func TestConvertResult_Processing(t *testing.T) {
	started := time.Now().Add(-2 * time.Second)
	manager := newFakeManager()
	manager.jobs["task-1"] = jobs.Job{
		ID:        "task-1",
		FileID:    "file-1",
		State:     jobs.StateProcessing,
		Progress:  40,
		StartedAt: started,
	}
	ts := newTestServer(newFakeFiles(), manager)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/file/convert2md/result/task-1")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got ConvertTaskResultResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "processing", got.Status)
	assert.Equal(t, 40, got.Progress)
	require.NotNil(t, got.StartTime)
	assert.InDelta(t, float64(started.UnixNano())/1e9, *got.StartTime, 0.001)
	assert.Nil(t, got.EndTime)
	assert.Nil(t, got.Result)
}

func TestConvertResult_Completed(t *testing.T) {
	manager := newFakeManager()
	manager.jobs["task-1"] = jobs.Job{
		ID:       "task-1",
		FileID:   "file-1",
		State:    jobs.StateCompleted,
		Progress: 100,
		Result: &jobs.Result{
			FileID:            "file-1",
			Markdown:          "## 第 1 页\n\nhello\n",
			MarkdownPath:      "/tmp/out.md",
			ProcessingSeconds: 1.5,
			PagesProcessed:    1,
			TablesFound:       1,
		},
		StartedAt:  time.Now().Add(-3 * time.Second),
		FinishedAt: time.Now(),
	}
	ts := newTestServer(newFakeFiles(), manager)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/file/convert2md/result/task-1")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var got ConvertTaskResultResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "completed", got.Status)
	assert.Equal(t, 100, got.Progress)
	require.NotNil(t, got.Result)
	assert.Equal(t, "## 第 1 页\n\nhello\n", got.Result.MarkdownContent)
	assert.Equal(t, "/tmp/out.md", got.Result.OutputPath)
	assert.Equal(t, 1, got.Result.PagesProcessed)
	assert.Equal(t, 1, got.Result.TablesFound)
	require.NotNil(t, got.EndTime)
}

func TestConvertResult_Failed(t *testing.T) {
	manager := newFakeManager()
	manager.jobs["task-1"] = jobs.Job{
		ID:         "task-1",
		FileID:     "file-1",
		State:      jobs.StateFailed,
		Progress:   100,
		Error:      "corrupt document",
		StartedAt:  time.Now().Add(-time.Second),
		FinishedAt: time.Now(),
	}
	ts := newTestServer(newFakeFiles(), manager)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/file/convert2md/result/task-1")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var got ConvertTaskResultResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "failed", got.Status)
	assert.Equal(t, 100, got.Progress)
	assert.Equal(t, "corrupt document", got.Error)
	assert.Nil(t, got.Result)
}

func TestConvertResult_Unknown(t *testing.T) {
	ts := newTestServer(newFakeFiles(), newFakeManager())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/file/convert2md/result/task-missing")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
