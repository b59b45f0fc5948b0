package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
)

// DefaultBaseURL is the platform REST API base.
const DefaultBaseURL = "https://discord.com/api/v10"

// ErrUpstream indicates the platform rejected a REST call.
var ErrUpstream = errors.New("discord request rejected")

// HTTPDoer abstracts HTTP client operations for dependency inversion.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client performs channel message operations against the platform REST API.
type Client struct {
	baseURL    string
	httpClient HTTPDoer
}

// NewClient creates a new Client. Authorization is expected to be handled
// by the injected HTTP client's transport.
func NewClient(baseURL string, httpClient HTTPDoer) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

// CreateMessage posts a message to a channel as a multipart form with a
// payload_json part and up to one binary part per file.
func (c *Client) CreateMessage(ctx context.Context, channelID string, payload CreateMessagePayload, files []File) error {
	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	if err := form.WriteField("payload_json", string(payloadJSON)); err != nil {
		return fmt.Errorf("write payload part: %w", err)
	}

	for i, f := range files {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files[%d]"; filename=%q`, i, f.Name))
		contentType := f.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header.Set("Content-Type", contentType)

		part, err := form.CreatePart(header)
		if err != nil {
			return fmt.Errorf("create file part %d: %w", i, err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return fmt.Errorf("write file part %d: %w", i, err)
		}
	}

	if err := form.Close(); err != nil {
		return fmt.Errorf("close form: %w", err)
	}

	url := c.baseURL + "/channels/" + channelID + "/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("%w: create message status %s: %s", ErrUpstream, strconv.Itoa(resp.StatusCode), detail)
	}
	return nil
}

// DeleteMessage deletes a channel message. A message that is already gone
// is not an error; deletion is idempotent.
func (c *Client) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	url := c.baseURL + "/channels/" + channelID + "/messages/" + messageID
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("%w: delete message status %d", ErrUpstream, resp.StatusCode)
	}
	return nil
}
