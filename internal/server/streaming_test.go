package server

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func rangeTestFile(t *testing.T, content string) *os.File {
	t.Helper()
	path := filepath.Join(t.TempDir(), "range.bin")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing test file: %v", err)
	}
	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening test file: %v", err)
	}
	t.Cleanup(func() { file.Close() })
	return file
}

func TestHandleRangeRequest(t *testing.T) {
	ms := createTestMusicServer()
	content := "0123456789" // 10 bytes

	tests := []struct {
		name        string
		rangeHeader string
		wantStatus  int
		wantBody    string
		wantRange   string
	}{
		{
			name:        "bounded range",
			rangeHeader: "bytes=0-4",
			wantStatus:  http.StatusPartialContent,
			wantBody:    "01234",
			wantRange:   "bytes 0-4/10",
		},
		{
			name:        "open-ended range",
			rangeHeader: "bytes=5-",
			wantStatus:  http.StatusPartialContent,
			wantBody:    "56789",
			wantRange:   "bytes 5-9/10",
		},
		{
			name:        "suffix range serves the last bytes",
			rangeHeader: "bytes=-3",
			wantStatus:  http.StatusPartialContent,
			wantBody:    "789",
			wantRange:   "bytes 7-9/10",
		},
		{
			name:        "suffix longer than file clamps to whole file",
			rangeHeader: "bytes=-100",
			wantStatus:  http.StatusPartialContent,
			wantBody:    content,
			wantRange:   "bytes 0-9/10",
		},
		{
			name:        "start beyond end",
			rangeHeader: "bytes=8-4",
			wantStatus:  http.StatusRequestedRangeNotSatisfiable,
		},
		{
			name:        "end beyond file size",
			rangeHeader: "bytes=0-10",
			wantStatus:  http.StatusRequestedRangeNotSatisfiable,
		},
		{
			name:        "garbage start",
			rangeHeader: "bytes=abc-4",
			wantStatus:  http.StatusRequestedRangeNotSatisfiable,
		},
		{
			name:        "empty suffix length",
			rangeHeader: "bytes=-",
			wantStatus:  http.StatusRequestedRangeNotSatisfiable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file := rangeTestFile(t, content)
			rec := httptest.NewRecorder()

			ms.handleRangeRequest(rec, file, int64(len(content)), tt.rangeHeader)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusPartialContent {
				return
			}
			if got := rec.Body.String(); got != tt.wantBody {
				t.Errorf("body = %q, want %q", got, tt.wantBody)
			}
			if got := rec.Header().Get("Content-Range"); got != tt.wantRange {
				t.Errorf("Content-Range = %q, want %q", got, tt.wantRange)
			}
		})
	}
}
