package imagehost

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/debemdeboas/folio/internal/config"
)

// UploadResult is the subset of a Cloudinary upload response folio reads and writes.
type UploadResult struct {
	SecureURL string `json:"secure_url"`
	URL       string `json:"url,omitempty"`
	PublicID  string `json:"public_id,omitempty"`
	Format    string `json:"format,omitempty"`
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
	Bytes     int64  `json:"bytes,omitempty"`
}

// HostError is a non-2xx answer of the image host.
type HostError struct {
	Status  int
	Message string
}

func (e *HostError) Error() string {
	return fmt.Sprintf("image host returned %d: %s", e.Status, e.Message)
}

// ErrorBody is the error envelope Cloudinary-compatible hosts answer with.
type ErrorBody struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Client uploads files to a Cloudinary-compatible endpoint.
type Client struct {
	endpoint   string
	preset     string
	token      string
	httpClient *http.Client
}

func NewClient(endpoint, preset string, timeout time.Duration) *Client {
	return &Client{
		endpoint:   endpoint,
		preset:     preset,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// NewClientFromConfig targets the configured host, or the folio server itself.
func NewClientFromConfig(cfg *config.Config) *Client {
	return NewClient(cfg.ImageHostURL(), cfg.Admin.UploadPreset, cfg.Admin.Timeout)
}

// WithToken sends the admin session along, for hosts that are folio servers.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// FilePartHeader describes a multipart file part with an explicit content type.
func FilePartHeader(field, filename, contentType string) textproto.MIMEHeader {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(field), quoteEscaper.Replace(filename)))
	h.Set(config.HCType, contentType)
	return h
}

func (c *Client) Upload(ctx context.Context, filename, contentType string, data []byte) (*UploadResult, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if err := mw.WriteField(config.PartUploadPreset, c.preset); err != nil {
		return nil, err
	}

	part, err := mw.CreatePart(FilePartHeader(config.PartFile, filename, contentType))
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("invalid image host URL: %w", err)
	}
	req.Header.Set(config.HCType, mw.FormDataContentType())
	if c.token != "" {
		req.Header.Set(config.HAuthorization, config.BearerPrefix+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image upload failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("error reading image host response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := http.StatusText(resp.StatusCode)
		var eb ErrorBody
		if json.Unmarshal(raw, &eb) == nil && eb.Error.Message != "" {
			msg = eb.Error.Message
		}
		return nil, &HostError{Status: resp.StatusCode, Message: msg}
	}

	var result UploadResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("error decoding image host response: %w", err)
	}
	if result.SecureURL == "" {
		return nil, fmt.Errorf("image host response has no secure_url")
	}

	hostLogger.Debug().Str("url", result.SecureURL).Msg("Image uploaded")
	return &result, nil
}
