// Package netx holds small plain-HTTP helpers that sit outside the backend
// API client, such as fetching a generated document from its download URL.
package netx

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
)

// maxDownloadBytes caps a single document download.
const maxDownloadBytes = 32 << 20

// DownloadFile fetches rawURL and writes the body into destDir, deriving the
// file name from the URL path. It returns the path of the written file.
func DownloadFile(ctx context.Context, rawURL, destDir string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse download url: %w", err)
	}
	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" {
		name = "download"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("download failed: %s; body: %s", resp.Status, string(b))
	}

	dest := filepath.Join(destDir, name)
	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", dest, err)
	}

	_, err = io.Copy(f, io.LimitReader(resp.Body, maxDownloadBytes))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("write %s: %w", dest, err)
	}
	return dest, nil
}
