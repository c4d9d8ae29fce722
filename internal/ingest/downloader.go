package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"
)

// DefaultBaseURL is the log source the HTTPDownloader fetches from.
const DefaultBaseURL = "https://logs.fomalhaut.me/download"

// Downloader fetches the raw textual log for a given date. Implementations
// are external collaborators: the daily log source is out of scope for this
// module beyond the contract it must satisfy.
type Downloader interface {
	Download(ctx context.Context, date time.Time) (string, error)
}

// HTTPDownloader fetches logs over HTTP from a URL template of the form
// "<BaseURL>/<YYYY-MM-DD>.log", lossily decoding the response body as UTF-8.
type HTTPDownloader struct {
	Client  *http.Client
	BaseURL string
}

// NewHTTPDownloader returns a Downloader backed by http.DefaultClient and
// DefaultBaseURL.
func NewHTTPDownloader() *HTTPDownloader {
	return &HTTPDownloader{Client: http.DefaultClient, BaseURL: DefaultBaseURL}
}

func (d *HTTPDownloader) client() *http.Client {
	if d.Client != nil {
		return d.Client
	}
	return http.DefaultClient
}

func (d *HTTPDownloader) baseURL() string {
	if d.BaseURL != "" {
		return d.BaseURL
	}
	return DefaultBaseURL
}

// Download fetches the log text for date. The body is lossily decoded: any
// byte sequence that is not valid UTF-8 is replaced rather than rejected,
// matching the upstream log format's loose encoding guarantees.
func (d *HTTPDownloader) Download(ctx context.Context, date time.Time) (string, error) {
	url := fmt.Sprintf("%s/%s.log", d.baseURL(), date.Format("2006-01-02"))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("ingest: download request: %w", err)
	}

	resp, err := d.client().Do(req)
	if err != nil {
		return "", fmt.Errorf("ingest: download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ingest: download %s: status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("ingest: download read: %w", err)
	}
	return toValidUTF8Lossy(body), nil
}

// toValidUTF8Lossy decodes b as UTF-8, replacing invalid sequences with the
// Unicode replacement character rather than failing, mirroring
// String::from_utf8_lossy's behaviour.
func toValidUTF8Lossy(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	var out []rune
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		out = append(out, r)
		b = b[size:]
	}
	return string(out)
}
