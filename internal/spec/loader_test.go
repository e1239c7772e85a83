package spec

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mark3labs/swagger2ts/pkg/generrors"
)

func TestLoad_BlocksFileURL(t *testing.T) {
	t.Parallel()
	_, err := Load(context.Background(), "file:///etc/hosts")
	if err == nil {
		t.Fatalf("expected error for file:// URL")
	}
	var ge *generrors.Error
	if !errors.As(err, &ge) {
		t.Fatalf("expected generrors.Error, got %T", err)
	}
	if ge.Code != generrors.InputError {
		t.Fatalf("expected InputError, got %v", ge.Code)
	}
}

func TestLoad_UnsupportedScheme(t *testing.T) {
	t.Parallel()
	_, err := Load(context.Background(), "ftp://example.com/spec.yaml")
	if !errors.Is(err, generrors.ErrInput) {
		t.Fatalf("expected InputError, got %v (%T)", err, err)
	}
}

func TestLoad_NetworkError(t *testing.T) {
	t.Parallel()
	// Unused port to provoke a quick network failure.
	url := "http://127.0.0.1:1/spec.yaml"
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := Load(ctx, url, WithHTTPTimeout(200*time.Millisecond), WithMaxRetries(2), WithBackoffBase(10*time.Millisecond))
	if !errors.Is(err, generrors.ErrNetwork) {
		t.Fatalf("expected NetworkError, got %v (%T)", err, err)
	}
}

func TestLoad_RetriesTransientHTTP(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"openapi":"3.0.0","info":{"title":"t","version":"1"},"paths":{}}`))
	}))
	defer srv.Close()

	raw, err := Load(context.Background(), srv.URL+"/spec.json", WithMaxRetries(3), WithBackoffBase(time.Millisecond))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if raw["openapi"] != "3.0.0" {
		t.Fatalf("unexpected document: %v", raw)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 requests, got %d", calls.Load())
	}
}

func TestLoad_RetryCountExcludesFirstAttempt(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	_, err := Load(context.Background(), srv.URL+"/spec.json",
		WithMaxRetries(1), WithBackoffBase(time.Millisecond), WithLogger(logger))
	if !errors.Is(err, generrors.ErrNetwork) {
		t.Fatalf("expected NetworkError, got %v (%T)", err, err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 1 attempt + 1 retry, got %d requests", calls.Load())
	}
	if n := strings.Count(logs.String(), "retrying"); n != 1 {
		t.Fatalf("expected one retry warning, got %d:\n%s", n, logs.String())
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"))
	var ge *generrors.Error
	if !errors.As(err, &ge) || ge.Code != generrors.InputError {
		t.Fatalf("expected InputError, got %v", err)
	}
	if ge.Location == "" {
		t.Fatalf("expected location to be set")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("openapi: [3.0\n  info: {"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := Load(context.Background(), path)
	if !errors.Is(err, generrors.ErrParse) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "swagger.yaml")
	content := strings.TrimSpace(`swagger: "2.0"
info:
  title: Sample
  version: "1.0.0"
paths:
  "/hello":
    get:
      responses:
        200:
          description: ok
`) + "\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	raw, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	v, err := DetectVersion(raw)
	if err != nil || v != V2 {
		t.Fatalf("expected v2, got %v (%v)", v, err)
	}
	// Integer response keys are normalized to strings.
	if _, ok := Lookup(raw, "#/paths/~1hello/get/responses/200"); !ok {
		t.Fatalf("expected response 200 to be addressable")
	}
}

func TestFromDocument_Copies(t *testing.T) {
	t.Parallel()
	doc := map[string]any{"openapi": "3.1.0", "paths": map[string]any{}}
	raw := FromDocument(doc)
	raw["paths"].(map[string]any)["/x"] = map[string]any{}
	if len(doc["paths"].(map[string]any)) != 0 {
		t.Fatalf("caller document was mutated")
	}
}
