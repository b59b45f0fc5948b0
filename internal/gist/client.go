// Package gist uploads full email content to an external paste service
// when it exceeds inline display limits.
package gist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mailcord/relay/internal/email"
)

const (
	// DefaultBaseURL is the GitHub REST API base.
	DefaultBaseURL = "https://api.github.com"
	// apiVersion pins the GitHub API revision.
	apiVersion = "2022-11-28"
	// htmlPreviewBase renders a raw HTML file in the browser.
	htmlPreviewBase = "https://htmlpreview.github.io/?"
	// textFilename is the file whose raw URL backs the HTML preview link.
	textFilename = "readme.txt"
)

// ErrUploadRejected indicates the paste service refused the upload.
var ErrUploadRejected = errors.New("gist upload rejected")

// Links are the externally hosted views of the full message.
type Links struct {
	// FullURL shows the complete upload: headers, bodies, attachments.
	FullURL string
	// HTMLURL renders the message through an HTML preview proxy.
	HTMLURL string
}

// HTTPDoer abstracts HTTP client operations for dependency inversion.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client uploads email content as secret gists.
type Client struct {
	baseURL    string
	token      string
	httpClient HTTPDoer
}

// NewClient creates a new Client authenticating with token.
func NewClient(baseURL, token string, httpClient HTTPDoer) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		httpClient: httpClient,
	}
}

type gistFile struct {
	Content string `json:"content"`
}

type createRequest struct {
	Description string              `json:"description"`
	Public      bool                `json:"public"`
	Files       map[string]gistFile `json:"files"`
}

type createResponse struct {
	HTMLURL string `json:"html_url"`
	Files   map[string]struct {
		RawURL string `json:"raw_url"`
	} `json:"files"`
}

// Upload posts the full message content (headers, both bodies, and every
// attachment, including those beyond the chat attachment cap) as a secret
// gist and returns the hosted links.
func (c *Client) Upload(ctx context.Context, msg *email.Message, description string) (*Links, error) {
	files := map[string]gistFile{
		"headers.txt": {Content: headersText(msg)},
	}
	if msg.HTMLBody != "" {
		files["readme.html"] = gistFile{Content: msg.HTMLBody}
	}
	if msg.TextBody != "" {
		files[textFilename] = gistFile{Content: msg.TextBody}
	}
	for _, a := range msg.Attachments {
		if len(a.Content) == 0 {
			continue
		}
		files["attachment-"+a.Filename] = gistFile{Content: string(a.Content)}
	}

	reqBody, err := json.Marshal(createRequest{
		Description: description,
		Public:      false,
		Files:       files,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal gist request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/gists", bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("%w: status %d: %s", ErrUploadRejected, resp.StatusCode, detail)
	}

	var created createResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("decode gist response: %w", err)
	}

	links := &Links{FullURL: created.HTMLURL}
	if f, ok := created.Files[textFilename]; ok {
		links.HTMLURL = htmlPreviewBase + f.RawURL
	}
	return links, nil
}

// headersText renders the addressing headers followed by the complete
// original header list.
func headersText(msg *email.Message) string {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\n", msg.From.String())
	fmt.Fprintf(&b, "To: %s\n", email.FormatAddressList(msg.To))
	fmt.Fprintf(&b, "Cc: %s\n", email.FormatAddressList(msg.CC))
	fmt.Fprintf(&b, "Bcc: %s\n", email.FormatAddressList(msg.BCC))
	fmt.Fprintf(&b, "Subject: %s\n", msg.Subject)
	fmt.Fprintf(&b, "Reply-To: %s\n\n", email.FormatAddressList(msg.ReplyTo))
	for _, h := range msg.Headers {
		fmt.Fprintf(&b, "%s: %s\n", h.Name, h.Value)
	}
	return b.String()
}
