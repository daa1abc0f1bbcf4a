// Package client is the HTTP client for the recording API. It attaches a
// bearer credential fetched from an oauth2.TokenSource to every call; the
// fetch happens per request so refreshed tokens are picked up without any
// client-side caching.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"golang.org/x/oauth2"

	"github.com/nitvob/outbrandai-webcam-recorder/internal/capture"
	"github.com/nitvob/outbrandai-webcam-recorder/internal/uploads"
)

var _ capture.Uploader = (*Client)(nil)

// Client talks to the recording API.
type Client struct {
	baseURL    string
	tokens     oauth2.TokenSource
	httpClient *http.Client
}

// New creates a Client for the API at baseURL. Tokens are pulled from ts on
// every call. No client-wide timeout is set; an upload runs as long as its
// context allows, so callers bound calls with their ctx.
func New(baseURL string, ts oauth2.TokenSource) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     ts,
		httpClient: &http.Client{},
	}
}

// NewWithHTTPClient is New with a caller-supplied http.Client, used by tests
// and by callers that need custom transports.
func NewWithHTTPClient(baseURL string, ts oauth2.TokenSource, hc *http.Client) *Client {
	c := New(baseURL, ts)
	c.httpClient = hc
	return c
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	tok, err := c.tokens.Token()
	if err != nil {
		return nil, fmt.Errorf("fetching token: %w", err)
	}
	tok.SetAuthHeader(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, apiError(resp)
	}
	return resp, nil
}

// apiError turns a non-200 response into an error carrying the server's
// message when one was sent.
func apiError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, payload.Message)
	}
	return fmt.Errorf("server returned %d", resp.StatusCode)
}

// Upload sends one recording as the multipart "video" field of a POST to
// /api/upload. It satisfies capture.Uploader.
func (c *Client) Upload(ctx context.Context, filename, mimeType string, r io.Reader) error {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="video"; filename=%q`, filename))
		header.Set("Content-Type", mimeType)
		part, err := mw.CreatePart(header)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, r); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload", pr)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return nil
}

// PastUploads fetches the caller's previous recordings, newest first.
func (c *Client) PastUploads(ctx context.Context) ([]uploads.UploadRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/past-uploads", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var records []uploads.UploadRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("decoding past uploads: %w", err)
	}
	return records, nil
}

// BaseURL reports the API root the client was configured with.
func (c *Client) BaseURL() string { return c.baseURL }
