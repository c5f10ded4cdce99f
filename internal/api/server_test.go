package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/bookgest/internal/config"
	"github.com/dgallion1/bookgest/internal/pipeline"
)

const sampleABX = `<هوية الكتاب>
<اسم الكتاب>تفسير القمي</اسم الكتاب>
<اسم المؤلف>علي بن إبراهيم</اسم المؤلف>
<جزء>2</جزء>
</هوية الكتاب>
<ملحق=1>
<فهرس الموضوعات>سورة البقرة</فهرس الموضوعات>
في تفسير الآية والسورة.
</ملحق=1>
<ملحق=2>
<فهرس الموضوعات>سورة آل عمران</فهرس الموضوعات>
تأويل الآية<هامش>في نسخة أخرى</هامش>.
</ملحق=2>
`

func testServer(t *testing.T, start bool) (*Server, *pipeline.Orchestrator) {
	t.Helper()
	cfg := config.Config{
		WorkerCount:         1,
		MaxQueueSize:        10,
		MaxUploadBytes:      1 << 20,
		JobTTL:              time.Hour,
		JobTimeout:          10 * time.Second,
		ParseMode:           "tolerant",
		ClassifierWindow:    3000,
		DefaultChunkSize:    1500,
		DefaultChunkOverlap: 200,
	}
	log := slog.New(slog.DiscardHandler)
	orch := pipeline.NewOrchestrator(cfg, log)
	if start {
		orch.Start(context.Background())
		t.Cleanup(orch.Stop)
	}
	return NewServer(orch, log, cfg), orch
}

func upload(t *testing.T, field string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range files {
		fw, err := mw.CreateFormFile(field, name)
		if err != nil {
			t.Fatal(err)
		}
		fw.Write([]byte(content))
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func do(t *testing.T, s *Server, method, path string, body *bytes.Buffer, contentType string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, body)
		req.Header.Set("Content-Type", contentType)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON response %q: %v", rec.Body.String(), err)
	}
	return rec, out
}

func TestHealth(t *testing.T) {
	s, _ := testServer(t, false)
	rec, out := do(t, s, http.MethodGet, "/health", nil, "")
	if rec.Code != http.StatusOK || out["status"] != "ok" {
		t.Errorf("unexpected health response %d %v", rec.Code, out)
	}
}

func TestParse_ReturnsRecord(t *testing.T) {
	s, _ := testServer(t, false)
	body, ct := upload(t, "file", map[string]string{"qummi.abx": sampleABX})

	rec, out := do(t, s, http.MethodPost, "/api/parse", body, ct)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", rec.Code, out)
	}

	record := out["record"].(map[string]any)
	if record["title"] != "تفسير القمي" {
		t.Errorf("expected title %q, got %v", "تفسير القمي", record["title"])
	}
	if record["category_id"] != "tafsir" {
		t.Errorf("expected category %q, got %v", "tafsir", record["category_id"])
	}
	if want := "تفسير القمي للمؤلف علي بن إبراهيم - الجزء 2"; record["description"] != want {
		t.Errorf("expected description %q, got %v", want, record["description"])
	}
	if chapters := record["chapters"].([]any); len(chapters) != 2 {
		t.Errorf("expected 2 chapters, got %d", len(chapters))
	}
}

func TestParse_UnsupportedExtension(t *testing.T) {
	s, _ := testServer(t, false)
	body, ct := upload(t, "file", map[string]string{"sheet.xlsx": "x"})

	rec, out := do(t, s, http.MethodPost, "/api/parse", body, ct)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(out["error"].(string), "unsupported") {
		t.Errorf("unexpected error %v", out["error"])
	}
}

func TestParse_MissingFile(t *testing.T) {
	s, _ := testServer(t, false)
	body, ct := upload(t, "other", map[string]string{"a.abx": "x"})

	rec, _ := do(t, s, http.MethodPost, "/api/parse", body, ct)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestParse_TooLarge(t *testing.T) {
	s, _ := testServer(t, false)
	s.cfg.MaxUploadBytes = 16
	body, ct := upload(t, "file", map[string]string{"big.txt": strings.Repeat("a", 64)})

	rec, _ := do(t, s, http.MethodPost, "/api/parse", body, ct)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", rec.Code)
	}
}

func waitStatus(t *testing.T, s *Server, jobID string) map[string]any {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		_, out := do(t, s, http.MethodGet, "/api/ingest/"+jobID+"/status", nil, "")
		if pipeline.JobStatus(out["status"].(string)).Terminal() {
			return out
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish", jobID)
	return nil
}

func TestIngest_Lifecycle(t *testing.T) {
	s, _ := testServer(t, true)
	body, ct := upload(t, "file", map[string]string{"qummi.abx": sampleABX})

	rec, out := do(t, s, http.MethodPost, "/api/ingest", body, ct)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %v", rec.Code, out)
	}
	jobID := out["job_id"].(string)
	if out["poll_url"] != "/api/ingest/"+jobID+"/status" {
		t.Errorf("unexpected poll url %v", out["poll_url"])
	}

	status := waitStatus(t, s, jobID)
	if status["status"] != string(pipeline.StatusCompleted) {
		t.Fatalf("expected completed, got %v", status)
	}

	rec, out = do(t, s, http.MethodGet, "/api/books/"+jobID, nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if out["classification"].(map[string]any)["category"] != "tafsir" {
		t.Errorf("unexpected classification %v", out["classification"])
	}

	_, out = do(t, s, http.MethodGet, "/api/books/"+jobID+"/chapters", nil, "")
	chapters := out["chapters"].([]any)
	if len(chapters) != 2 {
		t.Fatalf("expected 2 chapters, got %d", len(chapters))
	}
	second := chapters[1].(map[string]any)
	if second["title"] != "سورة آل عمران" || second["start_page"] != float64(2) || second["footnotes"] != float64(1) {
		t.Errorf("unexpected chapter summary %v", second)
	}

	_, out = do(t, s, http.MethodGet, "/api/books/"+jobID+"/passages", nil, "")
	if passages := out["passages"].([]any); len(passages) != 2 {
		t.Errorf("expected 2 passages, got %d", len(passages))
	}

	_, out = do(t, s, http.MethodGet, "/api/stats", nil, "")
	if jobs := out["jobs"].(map[string]any); jobs["completed"] != float64(1) {
		t.Errorf("unexpected stats %v", out)
	}

	rec, _ = do(t, s, http.MethodDelete, "/api/books/"+jobID, nil, "")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 on delete, got %d", rec.Code)
	}
	rec, _ = do(t, s, http.MethodGet, "/api/books/"+jobID, nil, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestIngest_Batch(t *testing.T) {
	s, _ := testServer(t, true)
	body, ct := upload(t, "files", map[string]string{
		"notes.txt":  "first page.\fsecond page.",
		"sheet.xlsx": "x",
	})

	rec, out := do(t, s, http.MethodPost, "/api/ingest/batch", body, ct)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	jobs := out["jobs"].([]any)
	if len(jobs) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(jobs))
	}

	var accepted, rejected int
	for _, j := range jobs {
		entry := j.(map[string]any)
		if _, ok := entry["error"]; ok {
			rejected++
			continue
		}
		accepted++
		status := waitStatus(t, s, entry["job_id"].(string))
		if status["status"] != string(pipeline.StatusCompleted) {
			t.Errorf("expected completed, got %v", status["status"])
		}
	}
	if accepted != 1 || rejected != 1 {
		t.Errorf("expected 1 accepted and 1 rejected, got %d/%d", accepted, rejected)
	}
}

func TestBooks_NotFoundAndPending(t *testing.T) {
	s, orch := testServer(t, false)

	rec, _ := do(t, s, http.MethodGet, "/api/books/missing/passages", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}

	job := pipeline.NewJob("queued.txt", []byte("text"))
	if err := orch.Submit(job); err != nil {
		t.Fatal(err)
	}
	rec, out := do(t, s, http.MethodGet, "/api/books/"+job.ID, nil, "")
	if rec.Code != http.StatusConflict || out["status"] != string(pipeline.StatusQueued) {
		t.Errorf("expected 409 with queued status, got %d %v", rec.Code, out)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct{ in, want string }{
		{"book.abx", "book.abx"},
		{"../../etc/passwd", "passwd"},
		{"dir/كتاب.abx", "كتاب.abx"},
		{"", "unnamed"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}
