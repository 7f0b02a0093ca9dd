// Package docsource fetches raw document bytes by storage path. Sources hide
// where uploads actually live: a local directory in development and the CLI,
// an object-storage HTTP endpoint in deployments.
package docsource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"docqa/internal/util"
)

// Source fetches the raw bytes of one stored document.
type Source interface {
	Fetch(ctx context.Context, storagePath string) ([]byte, error)
}

// FSSource serves documents from a directory tree rooted at root. Storage
// paths are confined to the root.
type FSSource struct {
	root string
}

func NewFSSource(root string) *FSSource {
	return &FSSource{root: root}
}

func (s *FSSource) Fetch(ctx context.Context, storagePath string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := util.SafeJoin(s.root, storagePath)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", storagePath, err)
	}
	return data, nil
}

// HTTPSource downloads documents from an object-storage HTTP API laid out as
// <base>/object/<bucket>/<path>, with an optional bearer token.
type HTTPSource struct {
	baseURL string
	bucket  string
	token   string
	client  *http.Client
}

func NewHTTPSource(baseURL, bucket, token string) *HTTPSource {
	if bucket == "" {
		bucket = "documents"
	}
	return &HTTPSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		bucket:  bucket,
		token:   token,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

func (s *HTTPSource) Fetch(ctx context.Context, storagePath string) ([]byte, error) {
	u := s.baseURL + "/object/" + url.PathEscape(s.bucket) + "/" + escapePath(storagePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build storage request: %w", err)
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", storagePath, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("download %s: status %d: %s", storagePath, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s body: %w", storagePath, err)
	}
	return data, nil
}

// escapePath escapes each segment but keeps the separators, so nested
// storage paths like project/file.pdf stay nested.
func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
