package download

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/rjldg/speech-transcribe/internal/domain"
)

// Downloader streams artifact content to local files. The artifact
// locators are SAS URLs that already embed authorization, so no
// credential is attached.
type Downloader struct {
	httpClient *http.Client
	dir        string
	logger     *log.Logger
}

func NewDownloader(dir string, logger *log.Logger) *Downloader {
	if dir == "" {
		dir = "batch_results"
	}
	return &Downloader{
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		dir:        dir,
		logger:     logger,
	}
}

// Download fetches one artifact and returns the local path written.
func (d *Downloader) Download(ctx context.Context, artifact domain.Artifact) (string, error) {
	if artifact.ContentURL == "" {
		return "", fmt.Errorf("artifact %q has no content url", artifact.Name)
	}
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}

	localPath := filepath.Join(d.dir, localName(artifact))

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, artifact.ContentURL, nil)
	if err != nil {
		return "", fmt.Errorf("create download request: %w", err)
	}
	response, err := d.httpClient.Do(request)
	if err != nil {
		return "", fmt.Errorf("download %q: %w", artifact.Name, err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return "", fmt.Errorf("download %q: unexpected status %d", artifact.Name, response.StatusCode)
	}

	file, err := os.Create(localPath)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", localPath, err)
	}
	defer file.Close()

	if _, err := io.Copy(file, response.Body); err != nil {
		return "", fmt.Errorf("write %s: %w", localPath, err)
	}

	if d.logger != nil {
		d.logger.Printf("downloaded %q -> %s", artifact.Name, localPath)
	}
	return localPath, nil
}

func localName(artifact domain.Artifact) string {
	if parsed, err := url.Parse(artifact.ContentURL); err == nil {
		if base := path.Base(parsed.Path); base != "" && base != "." && base != "/" {
			return base
		}
	}
	if artifact.Name != "" {
		return artifact.Name
	}
	return "result.json"
}
