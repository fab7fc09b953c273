// Package transport retrieves module scripts over HTTP or from the local filesystem.
package transport

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.trai.ch/wick/internal/core/domain"
	"go.trai.ch/wick/internal/core/ports"
	"go.trai.ch/zerr"
)

// CacheBustParam is the query parameter carrying a random value on every HTTP fetch.
const CacheBustParam = "_wick"

// maxBodySize bounds the size of a fetched script.
const maxBodySize = 8 << 20

var _ ports.Transport = (*Transport)(nil)

// Transport implements ports.Transport for http, https and file URLs.
// A URL without a scheme is read as a local path.
type Transport struct {
	httpClient *http.Client
	maxBody    int64
}

// New creates a Transport whose HTTP requests time out after timeout.
func New(timeout time.Duration) *Transport {
	if timeout <= 0 {
		timeout = domain.DefaultHTTPTimeout
	}
	return NewWithClient(&http.Client{Timeout: timeout})
}

// NewWithClient creates a Transport using client for HTTP requests.
func NewWithClient(client *http.Client) *Transport {
	return &Transport{httpClient: client, maxBody: maxBodySize}
}

// Fetch retrieves the resource at rawURL.
func (t *Transport) Fetch(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, domain.ErrTransport.Error()), "url", rawURL)
	}

	switch u.Scheme {
	case "http", "https":
		return t.fetchHTTP(ctx, u)
	case "file":
		return t.readFile(u.Path)
	case "":
		return t.readFile(rawURL)
	default:
		return "", zerr.With(domain.ErrUnsupportedScheme, "url", rawURL)
	}
}

func (t *Transport) fetchHTTP(ctx context.Context, u *url.URL) (string, error) {
	original := u.String()

	busted := *u
	q := busted.Query()
	q.Set(CacheBustParam, uuid.NewString())
	busted.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, busted.String(), http.NoBody)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, domain.ErrTransport.Error()), "url", original)
	}
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, domain.ErrTransport.Error()), "url", original)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := zerr.With(domain.ErrHTTPStatus, "status_code", resp.StatusCode)
		return "", zerr.With(statusErr, "url", original)
	}

	body, err := t.readAll(resp.Body)
	if err != nil {
		return "", zerr.With(err, "url", original)
	}
	return body, nil
}

func (t *Transport) readFile(path string) (string, error) {
	//nolint:gosec // Reading local scripts named by the caller is the purpose of the file scheme
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, domain.ErrTransport.Error()), "path", path)
	}
	defer func() {
		_ = f.Close()
	}()

	body, err := t.readAll(f)
	if err != nil {
		return "", zerr.With(err, "path", path)
	}
	return body, nil
}

// readAll reads r completely. A resource larger than the limit is rejected
// rather than truncated.
func (t *Transport) readAll(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, t.maxBody+1))
	if err != nil {
		return "", zerr.Wrap(err, domain.ErrTransport.Error())
	}
	if int64(len(data)) > t.maxBody {
		return "", zerr.With(domain.ErrResourceTooLarge, "limit", t.maxBody)
	}
	return string(data), nil
}
