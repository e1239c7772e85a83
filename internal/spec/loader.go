package spec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mark3labs/swagger2ts/pkg/generrors"
	"gopkg.in/yaml.v3"
)

// RawSpec is a decoded Swagger/OpenAPI document. It is owned by the caller and
// read-only to the pipeline; stages that need a modified copy clone it first.
type RawSpec map[string]any

// Settings configures loader behavior.
type Settings struct {
	// HTTPTimeout bounds each HTTP request.
	HTTPTimeout time.Duration
	// MaxRetries is the number of extra attempts after a transient HTTP failure (>=500, 429, or
	// network errors). Zero means a single attempt.
	MaxRetries int
	// BackoffBase is the base delay for exponential backoff.
	BackoffBase time.Duration
	// Logger receives retry warnings. Nil discards.
	Logger *slog.Logger
}

// DefaultSettings returns recommended defaults.
func DefaultSettings() Settings {
	return Settings{
		HTTPTimeout: 10 * time.Second,
		MaxRetries:  3,
		BackoffBase: 200 * time.Millisecond,
	}
}

// Option mutates Settings.
type Option func(*Settings)

func WithHTTPTimeout(d time.Duration) Option  { return func(s *Settings) { s.HTTPTimeout = d } }
func WithMaxRetries(n int) Option            { return func(s *Settings) { s.MaxRetries = n } }
func WithBackoffBase(d time.Duration) Option { return func(s *Settings) { s.BackoffBase = d } }
func WithLogger(l *slog.Logger) Option       { return func(s *Settings) { s.Logger = l } }

// Load reads a Swagger 2.0 or OpenAPI 3.x document from a filesystem path or an
// http/https URL and decodes it into a RawSpec. file:// URLs and other schemes are rejected.
func Load(ctx context.Context, input string, opts ...Option) (RawSpec, error) {
	if strings.TrimSpace(input) == "" {
		return nil, &generrors.Error{Code: generrors.InputError, Message: "spec: input is empty"}
	}

	settings := DefaultSettings()
	for _, opt := range opts {
		opt(&settings)
	}

	u, uerr := url.Parse(input)
	isURL := uerr == nil && u.Scheme != "" && u.Host != ""

	if isURL {
		scheme := strings.ToLower(u.Scheme)
		if scheme == "file" {
			return nil, &generrors.Error{Code: generrors.InputError, Message: "spec: file:// URLs are not supported, pass a path instead", Location: input}
		}
		if scheme != "http" && scheme != "https" {
			return nil, &generrors.Error{Code: generrors.InputError, Message: fmt.Sprintf("spec: unsupported URL scheme %q (only http/https allowed)", scheme), Location: input}
		}
		raw, err := fetchWithRetry(ctx, input, settings)
		if err != nil {
			return nil, &generrors.Error{Code: generrors.NetworkError, Message: fmt.Sprintf("fetch %s: %v", input, err), Location: input, Cause: err}
		}
		return Parse(raw, input)
	}

	abs, err := filepath.Abs(input)
	if err != nil {
		return nil, &generrors.Error{Code: generrors.InputError, Message: fmt.Sprintf("resolve path: %v", err), Location: input, Cause: err}
	}
	raw, err := os.ReadFile(abs)
	if err != nil {
		return nil, &generrors.Error{Code: generrors.InputError, Message: fmt.Sprintf("read file %s: %v", abs, err), Location: abs, Cause: err}
	}
	return Parse(raw, abs)
}

// Parse decodes YAML or JSON bytes into a RawSpec. location is only used in errors.
func Parse(data []byte, location string) (RawSpec, error) {
	var root any
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &generrors.Error{Code: generrors.ParseError, Message: fmt.Sprintf("parse spec: %v", err), Location: location, Cause: err}
	}
	doc, ok := Normalize(root).(map[string]any)
	if !ok {
		return nil, &generrors.Error{Code: generrors.ParseError, Message: "parse spec: document root is not a mapping", Location: location}
	}
	return RawSpec(doc), nil
}

// FromDocument wraps an in-memory document. The input is deep-copied and normalized so
// later stages never observe caller mutations.
func FromDocument(doc map[string]any) RawSpec {
	out, _ := Normalize(doc).(map[string]any)
	return RawSpec(out)
}

// Normalize converts YAML decoder output into JSON-compatible values: map keys become
// strings and timestamps become strings. The result never aliases v.
func Normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = Normalize(e)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[fmt.Sprint(k)] = Normalize(e)
		}
		return out
	case RawSpec:
		return Normalize(map[string]any(t))
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Normalize(e)
		}
		return out
	case time.Time:
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
			return t.Format("2006-01-02")
		}
		return t.Format(time.RFC3339Nano)
	default:
		return v
	}
}

func fetchWithRetry(ctx context.Context, rawURL string, settings Settings) ([]byte, error) {
	client := &http.Client{Timeout: settings.HTTPTimeout}
	logger := settings.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	var lastErr error
	backoff := settings.BackoffBase
	if backoff <= 0 {
		backoff = 200 * time.Millisecond
	}
	attempts := settings.MaxRetries + 1
	if attempts < 1 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(req)
		if err == nil && resp.StatusCode < 300 {
			defer resp.Body.Close()
			return io.ReadAll(resp.Body)
		}
		if err != nil {
			lastErr = err
		} else {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			resp.Body.Close()
			if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
				lastErr = fmt.Errorf("transient http error %d", resp.StatusCode)
			} else {
				return nil, fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
			}
		}
		if i == attempts-1 {
			break
		}
		logger.Warn("spec fetch failed, retrying", slog.String("url", rawURL), slog.Int("attempt", i+1), slog.Any("error", lastErr))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	if lastErr == nil {
		lastErr = errors.New("fetch failed")
	}
	return nil, lastErr
}
