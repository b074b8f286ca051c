package download

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rjldg/speech-transcribe/internal/domain"
)

func TestDownloadWritesArtifactUnderItsURLBasename(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/results/contoso_0.json" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"combinedRecognizedPhrases":[]}`))
	}))
	defer server.Close()

	dir := t.TempDir()
	downloader := NewDownloader(dir, nil)

	localPath, err := downloader.Download(context.Background(), domain.Artifact{
		Name:       "contoso_0.json",
		Kind:       "Transcription",
		ContentURL: server.URL + "/results/contoso_0.json?sas=token",
	})
	if err != nil {
		t.Fatalf("expected success, got err=%v", err)
	}
	if filepath.Base(localPath) != "contoso_0.json" {
		t.Fatalf("expected url basename as filename, got %q", localPath)
	}
	content, err := os.ReadFile(localPath)
	if err != nil {
		t.Fatalf("read downloaded file: %v", err)
	}
	if len(content) == 0 {
		t.Fatalf("expected non-empty download")
	}
}

func TestDownloadFailsOnHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	downloader := NewDownloader(t.TempDir(), nil)
	_, err := downloader.Download(context.Background(), domain.Artifact{
		Name:       "blocked.json",
		ContentURL: server.URL + "/blocked.json",
	})
	if err == nil {
		t.Fatalf("expected error for non-2xx download")
	}
}

func TestDownloadRejectsMissingContentURL(t *testing.T) {
	downloader := NewDownloader(t.TempDir(), nil)
	if _, err := downloader.Download(context.Background(), domain.Artifact{Name: "x"}); err == nil {
		t.Fatalf("expected error for artifact without content url")
	}
}

func TestLocalNameFallsBackToResultJSON(t *testing.T) {
	name := localName(domain.Artifact{ContentURL: "https://blob.example/"})
	if name != "result.json" {
		t.Fatalf("expected result.json fallback, got %q", name)
	}
}
