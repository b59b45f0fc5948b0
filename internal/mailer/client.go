// Package mailer sends outgoing email through a transactional send API.
package mailer

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

// ErrSendRejected indicates the send API refused the message.
var ErrSendRejected = errors.New("mail send rejected")

// Mail is one outgoing message.
type Mail struct {
	FromName    string
	FromAddress string
	To          []email.Address
	Subject     string
	TextBody    string
	// InReplyTo is the bare message identifier this mail answers; it is
	// rendered into In-Reply-To and References headers.
	InReplyTo string
}

// HTTPDoer abstracts HTTP client operations for dependency inversion.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client posts messages to the send API.
type Client struct {
	baseURL    string
	httpClient HTTPDoer
}

// NewClient creates a new Client.
func NewClient(baseURL string, httpClient HTTPDoer) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

type apiAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type personalization struct {
	To []apiAddress `json:"to"`
}

type contentPart struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             apiAddress        `json:"from"`
	Subject          string            `json:"subject"`
	Content          []contentPart     `json:"content"`
	Headers          map[string]string `json:"headers,omitempty"`
}

func (m Mail) validate() error {
	if m.FromAddress == "" {
		return fmt.Errorf("%w: missing from address", ErrSendRejected)
	}
	if len(m.To) == 0 {
		return fmt.Errorf("%w: no recipients", ErrSendRejected)
	}
	return nil
}

// Send posts one message to the send API. At-most-one-attempt: failures
// are returned, never retried here.
func (c *Client) Send(ctx context.Context, mail Mail) error {
	if err := mail.validate(); err != nil {
		return err
	}

	to := make([]apiAddress, 0, len(mail.To))
	for _, a := range mail.To {
		to = append(to, apiAddress{Email: a.Email, Name: a.Name})
	}

	payload := sendRequest{
		Personalizations: []personalization{{To: to}},
		From:             apiAddress{Email: mail.FromAddress, Name: mail.FromName},
		Subject:          mail.Subject,
		Content:          []contentPart{{Type: "text/plain", Value: mail.TextBody}},
	}
	if mail.InReplyTo != "" {
		ref := "<" + mail.InReplyTo + ">"
		payload.Headers = map[string]string{
			"In-Reply-To": ref,
			"References":  ref,
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal send request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/send", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("%w: status %d: %s", ErrSendRejected, resp.StatusCode, detail)
	}
	return nil
}
