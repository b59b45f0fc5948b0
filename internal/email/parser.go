package email

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-message"
	"github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
)

func init() {
	// Decode non-UTF-8 bodies and encoded-word headers.
	message.CharsetReader = charset.Reader
}

// Parse decodes a raw RFC 5322 message into a Message.
func Parse(raw []byte) (*Message, error) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("create mail reader: %w", err)
	}
	defer mr.Close()

	msg := &Message{Size: int64(len(raw))}
	h := mr.Header

	if from, err := h.AddressList("From"); err == nil && len(from) > 0 {
		msg.From = convertAddress(from[0])
	}
	msg.To = convertAddressList(h, "To")
	msg.CC = convertAddressList(h, "Cc")
	msg.BCC = convertAddressList(h, "Bcc")
	msg.ReplyTo = convertAddressList(h, "Reply-To")

	if subject, err := h.Subject(); err == nil {
		msg.Subject = subject
	}
	if date, err := h.Date(); err == nil {
		msg.Date = date
	}
	if id, err := h.MessageID(); err == nil {
		msg.MessageID = id
	}
	if ids, err := h.MsgIDList("In-Reply-To"); err == nil && len(ids) > 0 {
		msg.InReplyTo = ids[0]
	}

	msg.Headers = collectHeaders(h)

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Keep what was decoded so far; a broken trailing part
			// should not discard the whole message.
			break
		}

		switch ph := part.Header.(type) {
		case *mail.InlineHeader:
			contentType, _, _ := ph.ContentType()
			body, readErr := io.ReadAll(part.Body)
			if readErr != nil {
				continue
			}
			switch {
			case strings.HasPrefix(contentType, "text/plain") && msg.TextBody == "":
				msg.TextBody = string(body)
			case strings.HasPrefix(contentType, "text/html") && msg.HTMLBody == "":
				msg.HTMLBody = string(body)
			}

		case *mail.AttachmentHeader:
			filename, _ := ph.Filename()
			contentType, _, _ := ph.ContentType()
			body, readErr := io.ReadAll(part.Body)
			if readErr != nil {
				continue
			}
			msg.Attachments = append(msg.Attachments, Attachment{
				Filename: filename,
				MIMEType: contentType,
				Content:  body,
			})
		}
	}

	return msg, nil
}

// convertAddress maps a go-message address to the domain type.
func convertAddress(a *mail.Address) Address {
	return Address{Name: a.Name, Email: a.Address}
}

// convertAddressList reads an address header, tolerating malformed lists.
func convertAddressList(h mail.Header, key string) []Address {
	list, err := h.AddressList(key)
	if err != nil || len(list) == 0 {
		return nil
	}
	addrs := make([]Address, 0, len(list))
	for _, a := range list {
		addrs = append(addrs, convertAddress(a))
	}
	return addrs
}

// collectHeaders returns all header fields in original top-down order.
func collectHeaders(h mail.Header) []Header {
	var headers []Header
	fields := h.Fields()
	for fields.Next() {
		value, err := fields.Text()
		if err != nil {
			value = fields.Value()
		}
		headers = append(headers, Header{Name: fields.Key(), Value: value})
	}
	// Fields iterates newest-first; restore wire order.
	for i, j := 0, len(headers)-1; i < j; i, j = i+1, j-1 {
		headers[i], headers[j] = headers[j], headers[i]
	}
	return headers
}
