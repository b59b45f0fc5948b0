package discord

import (
	"net/http"
)

// userAgent identifies the relay per the platform's bot policy.
const userAgent = "DiscordBot (https://github.com/mailcord/relay; v1.0.0)"

// BotTransport is an http.RoundTripper that attaches bot authorization
// headers to every platform request.
type BotTransport struct {
	wrapped http.RoundTripper
	token   string
}

// NewBotTransport creates a new BotTransport.
func NewBotTransport(wrapped http.RoundTripper, token string) *BotTransport {
	return &BotTransport{
		wrapped: wrapped,
		token:   token,
	}
}

// RoundTrip implements http.RoundTripper.
func (t *BotTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Clone the request to avoid modifying the original
	authedReq := req.Clone(req.Context())
	authedReq.Header.Set("Authorization", "Bot "+t.token)
	authedReq.Header.Set("User-Agent", userAgent)
	return t.wrapped.RoundTrip(authedReq)
}
