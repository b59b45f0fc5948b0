// Package session encodes the per-case context embedded in a notification.
//
// A Session has no server-side storage. Its only durable location is the
// chat message that carries its encoded form, so a later interaction can
// recover everything needed to reply without any database.
package session

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mailcord/relay/internal/email"
)

// Error values returned by Decode. Callers treat either as "no
// recoverable context" and surface a user-visible notice.
var (
	ErrInvalidToken = errors.New("invalid session token")
	ErrIncomplete   = errors.New("session missing required fields")
)

// Session is the minimal context needed to act on a notification later.
type Session struct {
	CaseID    string          `json:"caseId"`
	ReplyTo   []email.Address `json:"replyTo"`
	Subject   string          `json:"subject"`
	MessageID string          `json:"messageId,omitempty"`
	InReplyTo string          `json:"inReplyTo,omitempty"`
}

// Encode serializes the session to an opaque text-safe token.
func Encode(s Session) string {
	data, _ := json.Marshal(s)
	return base64.StdEncoding.EncodeToString(data)
}

// Decode reverses Encode and validates that the required fields are
// present. The token round-trips exactly: Decode(Encode(s)) == s.
func Decode(token string) (Session, error) {
	data, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if s.CaseID == "" || len(s.ReplyTo) == 0 || s.Subject == "" {
		return Session{}, ErrIncomplete
	}
	return s, nil
}
