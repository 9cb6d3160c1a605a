// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package acquire fetches paper documents over HTTP for analysis.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/pdiddy/paper-digest/pkg/types"
)

// Sentinel errors for document fetches.
var (
	// ErrDownloadFailed is returned when the transport fails or the server
	// answers with a non-success status.
	ErrDownloadFailed = errors.New("acquire: download failed")
	// ErrTooLarge is returned when the document exceeds the size limit.
	ErrTooLarge = errors.New("acquire: document exceeds maximum size")
)

const (
	defaultTimeout   = 30 * time.Second
	defaultMaxBytes  = 50 << 20
	defaultUserAgent = "paper-digest/0.1 (+github.com/pdiddy/paper-digest)"
	defaultMIMEType  = "application/pdf"
	maxRedirects     = 10
)

// Document is a fetched paper body.
type Document struct {
	Data     []byte
	MIMEType string
}

// Fetcher downloads documents, following redirects, with an identifying
// User-Agent and a bounded timeout and size.
type Fetcher struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
}

// NewFetcher creates a Fetcher from the acquisition settings. A nil
// transport uses http.DefaultTransport.
func NewFetcher(cfg types.AcquisitionConfig, transport http.RoundTripper) *Fetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}

	return &Fetcher{
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				req.Header.Set("User-Agent", ua)
				return nil
			},
		},
		userAgent: ua,
		maxBytes:  maxBytes,
	}
}

// Fetch downloads the document at url. Any transport failure or non-2xx
// status wraps ErrDownloadFailed.
func (f *Fetcher) Fetch(ctx context.Context, url string) (Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Document{}, fmt.Errorf("%w: creating request: %v", ErrDownloadFailed, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/pdf, */*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Document{}, fmt.Errorf("%w: HTTP %d from %s", ErrDownloadFailed, resp.StatusCode, url)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return Document{}, fmt.Errorf("%w: reading body: %v", ErrDownloadFailed, err)
	}
	if int64(len(data)) > f.maxBytes {
		return Document{}, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, f.maxBytes)
	}

	return Document{Data: data, MIMEType: mediaType(resp.Header.Get("Content-Type"))}, nil
}

// mediaType returns the declared media type, defaulting to PDF when the
// server sends none or a generic binary type.
func mediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil || mt == "" || mt == "application/octet-stream" {
		return defaultMIMEType
	}
	return mt
}
