package imagekit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/civictrack/civictrack-backend/pkg/errors"
)

const (
	defaultUploadURL            = "https://upload.imagekit.io/api/v1/files/upload"
	responseBodyReadLimit int64 = 1024
)

var errPrivateKeyRequired = errors.New("imagekit private key is required")

// Client uploads files to ImageKit through its upload API.
type Client struct {
	httpClient *http.Client
	uploadURL  string
	privateKey string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithUploadURL overrides the upload endpoint.
func WithUploadURL(uploadURL string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(uploadURL); trimmed != "" {
			c.uploadURL = trimmed
		}
	}
}

// NewClient builds an ImageKit client authenticated with the private key.
func NewClient(privateKey string, opts ...Option) (*Client, error) {
	key := strings.TrimSpace(privateKey)
	if key == "" {
		return nil, errPrivateKeyRequired
	}
	client := &Client{
		privateKey: key,
		uploadURL:  defaultUploadURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// UploadInput describes one file upload.
type UploadInput struct {
	FileName string
	Folder   string
	Content  io.Reader
}

// UploadResult is the subset of the ImageKit response callers use.
type UploadResult struct {
	FileID string `json:"fileId"`
	Name   string `json:"name"`
	URL    string `json:"url"`
}

// Upload sends the file as multipart form data and returns its public URL.
func (c *Client) Upload(ctx context.Context, in UploadInput) (*UploadResult, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "imagekit client not configured")
	}
	if strings.TrimSpace(in.FileName) == "" || in.Content == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file is required")
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", in.FileName)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build upload form")
	}
	if _, err := io.Copy(part, in.Content); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "copy upload content")
	}
	fields := map[string]string{
		"fileName":          in.FileName,
		"useUniqueFileName": "true",
	}
	if folder := strings.TrimSpace(in.Folder); folder != "" {
		fields["folder"] = folder
	}
	for k, v := range fields {
		if err := form.WriteField(k, v); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build upload form")
		}
	}
	if err := form.Close(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build upload form")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL, &body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build upload request")
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(c.privateKey, "")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "Upload failed")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		message := "Upload failed"
		var apiErr struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(raw, &apiErr) == nil && strings.TrimSpace(apiErr.Message) != "" {
			message = apiErr.Message
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))), message)
	}

	var result UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "decode upload response")
	}
	if result.URL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUpstream, "Upload failed")
	}
	return &result, nil
}
