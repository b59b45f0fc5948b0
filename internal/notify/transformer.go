// Package notify transforms a structured email into a chat notification.
//
// The notification carries two embeds at fixed positions: the primary
// display block, then the session-carrier block whose description is the
// encoded case session. Interactions locate the session by that position.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mailcord/relay/internal/discord"
	"github.com/mailcord/relay/internal/email"
	"github.com/mailcord/relay/internal/gist"
	"github.com/mailcord/relay/internal/htmlstrip"
	"github.com/mailcord/relay/internal/session"
)

const (
	// MaxFiles caps the binary attachments sent to chat. Attachments
	// beyond the cap reach the fallback mailbox and the full-content
	// upload only.
	MaxFiles = 10

	// NoSubject replaces an empty subject line.
	NoSubject = "(no subject)"

	embedColor            = 0x00FF00
	embedTitleLimit       = 256
	embedDescriptionLimit = 4096
	fieldValueLimit       = 1024
	previewThreshold      = 1500
	truncatedSuffix       = "… (truncated)"

	extraAttachmentsNote = " Extra attachments were forwarded to the fallback email address."
)

// Uploader escalates full email content to external hosting.
type Uploader interface {
	Upload(ctx context.Context, msg *email.Message, description string) (*gist.Links, error)
}

// Previewer generates a short preview line for an email.
type Previewer interface {
	Preview(ctx context.Context, subject, from, bodyText string) (string, error)
}

// Notification is a ready-to-post chat message.
type Notification struct {
	Payload discord.CreateMessagePayload
	Files   []discord.File
}

// Transformer builds notifications from inbound email. Uploader and
// Previewer are optional; both run best-effort and never fail the
// transformation.
type Transformer struct {
	uploader  Uploader
	previewer Previewer
	logger    *slog.Logger
	newCaseID func() string
}

// NewTransformer creates a new Transformer.
func NewTransformer(uploader Uploader, previewer Previewer, logger *slog.Logger) *Transformer {
	return &Transformer{
		uploader:  uploader,
		previewer: previewer,
		logger:    logger,
		newCaseID: func() string { return uuid.New().String() },
	}
}

// Transform converts one email into a notification addressed to recipient.
// The caller is expected to have dropped signature attachments already.
func (t *Transformer) Transform(ctx context.Context, msg *email.Message, recipient string) *Notification {
	subject := msg.Subject
	if subject == "" {
		subject = NoSubject
	}

	replyTo := msg.ReplyTo
	if len(replyTo) == 0 {
		replyTo = []email.Address{msg.From}
	}

	sess := session.Session{
		CaseID:    t.newCaseID(),
		ReplyTo:   replyTo,
		Subject:   subject,
		MessageID: msg.MessageID,
		InReplyTo: msg.InReplyTo,
	}

	content := fmt.Sprintf("📩️ New message to **%s**!", recipient)
	if len(msg.Attachments) > MaxFiles {
		content += extraAttachmentsNote
	}

	displayText := msg.TextBody
	if displayText == "" && msg.HTMLBody != "" {
		displayText = htmlstrip.Text(msg.HTMLBody)
	}

	links, preview := t.runSideEffects(ctx, msg, sess.CaseID, content, subject, displayText)

	if preview != "" {
		content += "\n> " + preview
	}

	description := displayText
	if len(description) > embedDescriptionLimit {
		description = truncate(description, embedDescriptionLimit-len(truncatedSuffix)) + truncatedSuffix
	}

	primary := discord.Embed{
		Title:       truncate(subject, embedTitleLimit),
		Description: description,
		Color:       embedColor,
		Author:      &discord.EmbedAuthor{Name: msg.From.String()},
		Fields:      t.buildFields(msg),
		Footer: &discord.EmbedFooter{
			Text: fmt.Sprintf("%d attachment(s) • %d bytes", len(msg.Attachments), msg.Size),
		},
	}
	if !msg.Date.IsZero() {
		primary.Timestamp = msg.Date.UTC().Format(time.RFC3339)
	}

	refs, files := attachmentParts(msg.Attachments)

	return &Notification{
		Payload: discord.CreateMessagePayload{
			Content:     content,
			Embeds:      []discord.Embed{primary, {Description: session.Encode(sess)}},
			Components:  []discord.Component{{Type: discord.ComponentActionRow, Components: buildButtons(links)}},
			Attachments: refs,
		},
		Files: files,
	}
}

// runSideEffects runs the full-content upload and the AI preview
// concurrently. Failures are logged and swallowed; neither outcome gates
// the notification.
func (t *Transformer) runSideEffects(ctx context.Context, msg *email.Message, caseID, description, subject, displayText string) (*gist.Links, string) {
	var links *gist.Links
	var preview string

	g, gctx := errgroup.WithContext(ctx)
	if t.uploader != nil {
		g.Go(func() error {
			uploaded, err := t.uploader.Upload(gctx, msg, description)
			if err != nil {
				t.logger.ErrorContext(gctx, "Full-content upload failed",
					slog.String("case_id", caseID),
					slog.String("error", err.Error()),
				)
				return nil
			}
			links = uploaded
			return nil
		})
	}
	if t.previewer != nil && len(displayText) > previewThreshold {
		g.Go(func() error {
			generated, err := t.previewer.Preview(gctx, subject, msg.From.String(), displayText)
			if err != nil {
				t.logger.ErrorContext(gctx, "Preview generation failed",
					slog.String("case_id", caseID),
					slog.String("error", err.Error()),
				)
				return nil
			}
			preview = generated
			return nil
		})
	}
	_ = g.Wait()

	return links, preview
}

// buildFields renders Cc/Bcc/Reply-To, the remaining headers, and the
// trailing thread fields. Empty address lists are omitted entirely.
func (t *Transformer) buildFields(msg *email.Message) []discord.EmbedField {
	var fields []discord.EmbedField

	addAddresses := func(name string, addrs []email.Address) {
		if len(addrs) == 0 {
			return
		}
		parts := make([]string, 0, len(addrs))
		for _, a := range addrs {
			if a.Name == "" {
				parts = append(parts, a.Email)
				continue
			}
			parts = append(parts, fmt.Sprintf("%s (%s)", a.Name, a.Email))
		}
		fields = append(fields, discord.EmbedField{
			Name:   name,
			Value:  truncate(strings.Join(parts, ", "), fieldValueLimit),
			Inline: true,
		})
	}
	addAddresses("Cc", msg.CC)
	addAddresses("Bcc", msg.BCC)
	addAddresses("Reply To", msg.ReplyTo)

	for _, h := range msg.Headers {
		switch strings.ToLower(h.Name) {
		case "from", "to", "cc", "bcc", "reply-to":
			continue
		}
		if h.Value == "" {
			continue
		}
		fields = append(fields, discord.EmbedField{
			Name:   strings.ReplaceAll(h.Name, "-", " "),
			Value:  truncate(h.Value, fieldValueLimit),
			Inline: true,
		})
	}

	messageID := msg.MessageID
	if messageID == "" {
		messageID = "Unknown"
	}
	fields = append(fields, discord.EmbedField{Name: "Message ID", Value: truncate(messageID, fieldValueLimit)})

	replyingTo := msg.InReplyTo
	if replyingTo == "" {
		replyingTo = "New thread"
	}
	fields = append(fields, discord.EmbedField{Name: "Replying to", Value: truncate(replyingTo, fieldValueLimit)})

	return fields
}

// buildButtons assembles the action row: Reply, hosted-content links when
// available, Forward, Delete.
func buildButtons(links *gist.Links) []discord.Component {
	buttons := []discord.Component{
		{Type: discord.ComponentButton, CustomID: discord.CustomIDReply, Label: "Reply", Style: discord.ButtonPrimary},
	}
	if links != nil && links.FullURL != "" {
		buttons = append(buttons, discord.Component{
			Type: discord.ComponentButton, Label: "View full", Style: discord.ButtonLink, URL: links.FullURL,
		})
		if links.HTMLURL != "" {
			buttons = append(buttons, discord.Component{
				Type: discord.ComponentButton, Label: "View HTML", Style: discord.ButtonLink, URL: links.HTMLURL,
			})
		}
	}
	buttons = append(buttons,
		discord.Component{Type: discord.ComponentButton, CustomID: discord.CustomIDForward, Label: "Forward", Style: discord.ButtonSecondary},
		discord.Component{Type: discord.ComponentButton, CustomID: discord.CustomIDDelete, Label: "Delete", Style: discord.ButtonDanger},
	)
	return buttons
}

// attachmentParts returns the metadata refs and binary parts for the
// first MaxFiles attachments in original order.
func attachmentParts(attachments []email.Attachment) ([]discord.AttachmentRef, []discord.File) {
	count := len(attachments)
	if count > MaxFiles {
		count = MaxFiles
	}
	refs := make([]discord.AttachmentRef, 0, count)
	files := make([]discord.File, 0, count)
	for i := 0; i < count; i++ {
		a := attachments[i]
		refs = append(refs, discord.AttachmentRef{ID: strconv.Itoa(i), Filename: a.Filename})
		files = append(files, discord.File{Name: a.Filename, ContentType: a.MIMEType, Data: a.Content})
	}
	return refs, files
}

// truncate cuts s to at most limit bytes without splitting a rune.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
