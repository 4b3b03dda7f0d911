package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ytalbum/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckReachable(t *testing.T) {
	var gotUA, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotMethod = r.Method
		w.WriteHeader(http.StatusFound)
	}))
	defer srv.Close()

	result := CheckReachable(context.Background(), "YouTube", srv.URL+"/redirect-loop-free", "ytalbum/test", time.Second)
	if !result.Passed {
		t.Fatalf("expected reachable, got %s", result.Detail)
	}
	if gotUA != "ytalbum/test" || gotMethod != http.MethodHead {
		t.Fatalf("unexpected request: method=%s ua=%s", gotMethod, gotUA)
	}
}

func TestCheckReachableServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	result := CheckReachable(context.Background(), "YouTube", srv.URL, "", time.Second)
	if result.Passed {
		t.Fatal("expected failure for 502")
	}
}

func TestCheckReachableMissingURL(t *testing.T) {
	if result := CheckReachable(context.Background(), "YouTube", " ", "", 0); result.Passed || result.Detail != "missing url" {
		t.Fatalf("unexpected result %#v", result)
	}
}

func TestRunAll(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.StagingDir = t.TempDir()
	cfg.Paths.OutputDir = filepath.Join(t.TempDir(), "not-yet")
	cfg.Paths.LogDir = filepath.Join(t.TempDir(), "missing-logs")

	results := RunAll(context.Background(), &cfg)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if !results[0].Passed || !results[1].Passed {
		t.Fatalf("expected staging and output checks to pass: %#v", results)
	}
	failed := Failed(results)
	if len(failed) != 1 || failed[0].Name != "Log directory" {
		t.Fatalf("expected only log directory to fail, got %#v", failed)
	}
}

func TestRequirementsUseConfiguredBinaries(t *testing.T) {
	cfg := config.Default()
	cfg.Tools.YoutubeDL = "/opt/yt-dlp"
	cfg.Tools.FFmpeg = "/opt/ffmpeg"

	reqs := Requirements(&cfg)
	if len(reqs) != 2 || reqs[0].Command != "/opt/yt-dlp" || reqs[1].Command != "/opt/ffmpeg" {
		t.Fatalf("unexpected requirements %#v", reqs)
	}
}
