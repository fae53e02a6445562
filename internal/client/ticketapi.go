package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pezhmanazar/phoenix-admin/internal/domain"
)

// Fallback codes used when the backend gives no usable error code.
const (
	FallbackSendFailed   = "send_failed"
	FallbackUploadFailed = "upload_failed"
)

const maxResponseBytes = 1 << 20

// Upload is the multipart payload of the upload-reply endpoint.
type Upload struct {
	FileName    string
	ContentType string
	Data        []byte
	Text        string
	// DurationSec is sent only for voice recordings.
	DurationSec *int
}

// Client talks to the ticket endpoints behind the admin proxy.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
	cookie     *http.Cookie
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the client logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger.Named("ticketapi") }
}

// WithSessionCookie presents the admin session the way a browser would.
func WithSessionCookie(name, value string) Option {
	return func(c *Client) {
		if value != "" {
			c.cookie = &http.Cookie{Name: name, Value: value}
		}
	}
}

// New builds a Client rooted at baseURL (for example http://host/api).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Reply posts a text-only reply as JSON.
func (c *Client) Reply(ctx context.Context, ticketID, text string) (domain.ReplyResult, error) {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return domain.ReplyResult{}, err
	}
	req, err := c.newRequest(ctx, http.MethodPost, c.ticketPath(ticketID, "reply"), bytes.NewReader(body))
	if err != nil {
		return domain.ReplyResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.doReply(req, FallbackSendFailed)
}

// ReplyUpload posts a reply carrying a file or voice recording as multipart form data.
func (c *Client) ReplyUpload(ctx context.Context, ticketID string, upload Upload) (domain.ReplyResult, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	contentType := upload.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	partHeader := textproto.MIMEHeader{}
	partHeader.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeHeaderValue(upload.FileName)))
	partHeader.Set("Content-Type", contentType)
	part, err := writer.CreatePart(partHeader)
	if err != nil {
		return domain.ReplyResult{}, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(upload.Data); err != nil {
		return domain.ReplyResult{}, fmt.Errorf("write form file: %w", err)
	}
	if strings.TrimSpace(upload.Text) != "" {
		if err := writer.WriteField("text", upload.Text); err != nil {
			return domain.ReplyResult{}, err
		}
	}
	if upload.DurationSec != nil {
		if err := writer.WriteField("durationSec", strconv.Itoa(*upload.DurationSec)); err != nil {
			return domain.ReplyResult{}, err
		}
	}
	if err := writer.Close(); err != nil {
		return domain.ReplyResult{}, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.ticketPath(ticketID, "reply-upload"), &buf)
	if err != nil {
		return domain.ReplyResult{}, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return c.doReply(req, FallbackUploadFailed)
}

// Ticket fetches a ticket with its thread. The backend may wrap the
// ticket as {"ticket": {...}} or return it bare.
func (c *Client) Ticket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.ticketPath(ticketID, ""), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch ticket: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read ticket: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch ticket: status %d", resp.StatusCode)
	}

	var wrapped struct {
		Ticket *domain.Ticket `json:"ticket"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("decode ticket: %w", err)
	}
	if wrapped.Ticket != nil {
		return wrapped.Ticket, nil
	}
	var ticket domain.Ticket
	if err := json.Unmarshal(body, &ticket); err != nil {
		return nil, fmt.Errorf("decode ticket: %w", err)
	}
	return &ticket, nil
}

func (c *Client) doReply(req *http.Request, fallback string) (domain.ReplyResult, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("reply request failed", zap.String("url", req.URL.String()), zap.Error(err))
		return domain.ReplyResult{}, fmt.Errorf("network: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return domain.Malformed(resp.StatusCode, fallback), nil
	}

	result := DecodeReply(resp.StatusCode, body, fallback)
	c.logger.Debug("reply response",
		zap.String("url", req.URL.String()),
		zap.Int("status", resp.StatusCode),
		zap.Bool("ok", result.OK()),
		zap.String("error_code", result.ErrorCode),
		zap.Duration("duration", time.Since(start)))
	return result, nil
}

// DecodeReply turns an {ok, error?} response into a tagged result. Any
// non-2xx status or a missing/false ok is a failure.
func DecodeReply(status int, body []byte, fallback string) domain.ReplyResult {
	var envelope struct {
		OK    *bool   `json:"ok"`
		Error *string `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return domain.Malformed(status, fallback)
	}
	if status >= 200 && status < 300 && envelope.OK != nil && *envelope.OK {
		return domain.Success(status, json.RawMessage(body))
	}
	code := fallback
	if envelope.Error != nil && strings.TrimSpace(*envelope.Error) != "" {
		code = *envelope.Error
	}
	return domain.Failure(status, code)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	return req, nil
}

func (c *Client) ticketPath(ticketID, action string) string {
	path := "/tickets/" + url.PathEscape(ticketID)
	if action != "" {
		path += "/" + action
	}
	return path
}

// Line breaks are dropped so a file name cannot end the part header.
var headerValueEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"", "\r", "", "\n", "")

func escapeHeaderValue(s string) string {
	return headerValueEscaper.Replace(s)
}
