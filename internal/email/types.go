// Package email defines the structured email model produced by the MIME
// parsing layer and consumed by the notification pipeline.
package email

import (
	"strings"
	"time"
)

// SignatureFilename is the detached-signature attachment name dropped
// before any processing.
const SignatureFilename = "signature.asc"

// Address represents an email address with optional display name.
type Address struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// String renders the address in RFC 5322 angle-bracket form.
func (a Address) String() string {
	if a.Name == "" {
		return a.Email
	}
	return a.Name + " <" + a.Email + ">"
}

// Attachment is a decoded MIME attachment.
type Attachment struct {
	Filename string
	MIMEType string
	Content  []byte
}

// Header is a single raw message header in original order.
type Header struct {
	Name  string
	Value string
}

// Message is the structured form of one inbound email.
type Message struct {
	From        Address
	To          []Address
	CC          []Address
	BCC         []Address
	ReplyTo     []Address
	Subject     string
	TextBody    string
	HTMLBody    string
	Headers     []Header
	MessageID   string
	InReplyTo   string
	Attachments []Attachment
	Date        time.Time
	Size        int64
}

// DropSignatureAttachments removes detached-signature attachments. They
// carry no user-facing value and must not count toward attachment limits.
func (m *Message) DropSignatureAttachments() {
	kept := m.Attachments[:0]
	for _, a := range m.Attachments {
		if a.Filename == SignatureFilename {
			continue
		}
		kept = append(kept, a)
	}
	m.Attachments = kept
}

// FormatAddressList renders addresses in angle-bracket form joined by
// commas, for header rendering.
func FormatAddressList(addrs []Address) string {
	parts := make([]string, 0, len(addrs))
	for _, a := range addrs {
		parts = append(parts, a.String())
	}
	return strings.Join(parts, ", ")
}
