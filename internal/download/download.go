// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package download saves a citation's openly linked PDF as <index>.pdf.
// Downloads are best effort: the harvest logs failures and moves on.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
)

// Downloader fetches PDFs into a directory. Unlike page fetches it takes no
// courtesy delay and sends no custom headers.
type Downloader struct {
	client *http.Client
	dir    string
}

// New returns a Downloader writing into dir.
func New(client *http.Client, dir string) *Downloader {
	if client == nil {
		client = &http.Client{}
	}
	return &Downloader{client: client, dir: dir}
}

// Path returns the destination file for a citation index.
func (d *Downloader) Path(index int) string {
	return filepath.Join(d.dir, strconv.Itoa(index)+".pdf")
}

// Download fetches url and writes it to <dir>/<index>.pdf using a temporary
// file, so a failed transfer never leaves a partial PDF behind.
func (d *Downloader) Download(ctx context.Context, url string, index int) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}

	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating directory %s: %w", d.dir, err)
	}

	destPath := d.Path(index)
	tmpFile, err := os.CreateTemp(d.dir, ".download-*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, copyErr := io.Copy(tmpFile, resp.Body)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("renaming temp file: %w", err)
	}
	return destPath, nil
}
