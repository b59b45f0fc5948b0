// Package route dispatches verified interaction callbacks to actions.
package route

import (
	"context"
	"log/slog"
	"regexp"

	"github.com/mailcord/relay/internal/discord"
	"github.com/mailcord/relay/internal/mailer"
	"github.com/mailcord/relay/internal/session"
)

const (
	// maxSubjectLength is the composition form's subject field limit.
	maxSubjectLength = 1024
	// maxBodyLength is the composition form's body field limit.
	maxBodyLength = 2000
)

// replyPrefixes matches one or more leading "Re: " markers.
var replyPrefixes = regexp.MustCompile(`^(Re: )+`)

// MessageDeleter deletes notification messages.
type MessageDeleter interface {
	DeleteMessage(ctx context.Context, channelID, messageID string) error
}

// MailSender sends outgoing email.
type MailSender interface {
	Send(ctx context.Context, mail mailer.Mail) error
}

// Router is the per-request interaction state machine. All context comes
// from the interaction itself and the session embedded in the referenced
// message; nothing is persisted between requests.
type Router struct {
	deleter     MessageDeleter
	sender      MailSender
	fromName    string
	fromAddress string
	logger      *slog.Logger
}

// NewRouter creates a new Router. Outgoing mail is sent from the given
// identity.
func NewRouter(deleter MessageDeleter, sender MailSender, fromName, fromAddress string, logger *slog.Logger) *Router {
	return &Router{
		deleter:     deleter,
		sender:      sender,
		fromName:    fromName,
		fromAddress: fromAddress,
		logger:      logger,
	}
}

// Route dispatches one interaction and always produces a response.
// Unrecognized input is answered, never treated as an error.
func (r *Router) Route(ctx context.Context, in *discord.Interaction) *discord.Response {
	switch in.Type {
	case discord.InteractionPing:
		return &discord.Response{Type: discord.ResponsePong}

	case discord.InteractionMessageComponent:
		return r.routeComponent(ctx, in)

	case discord.InteractionModalSubmit:
		return r.routeModalSubmit(ctx, in)

	default:
		return ephemeral("Unsupported interaction type")
	}
}

func (r *Router) routeComponent(ctx context.Context, in *discord.Interaction) *discord.Response {
	if in.Data == nil {
		return ephemeral("Unsupported custom id")
	}

	switch in.Data.CustomID {
	case discord.CustomIDDelete:
		return r.deleteNotification(ctx, in)
	case discord.CustomIDReply:
		return r.openReplyComposer(in)
	case discord.CustomIDForward:
		return r.forwardMail(ctx, in)
	default:
		return ephemeral("Unsupported custom id")
	}
}

// deleteNotification removes the originating message. The session dies
// with it, which is the only deletion the design needs.
func (r *Router) deleteNotification(ctx context.Context, in *discord.Interaction) *discord.Response {
	if in.Message == nil {
		return ephemeral("No data embed found")
	}
	if err := r.deleter.DeleteMessage(ctx, in.ChannelID, in.Message.ID); err != nil {
		r.logger.ErrorContext(ctx, "Failed to delete notification",
			slog.String("channel_id", in.ChannelID),
			slog.String("message_id", in.Message.ID),
			slog.String("error", err.Error()),
		)
		return ephemeral("Could not delete the message")
	}
	return &discord.Response{Type: discord.ResponseDeferredMessageUpdate}
}

// openReplyComposer recovers the session and responds with a prefilled
// reply form.
func (r *Router) openReplyComposer(in *discord.Interaction) *discord.Response {
	sess, ok := r.decodeSession(in)
	if !ok {
		return ephemeral("No data embed found")
	}

	subject := NormalizeReplySubject(sess.Subject)

	return &discord.Response{
		Type: discord.ResponseModal,
		Data: &discord.ResponseData{
			Title:    subject,
			CustomID: discord.CustomIDReply,
			Components: []discord.Component{
				{
					Type: discord.ComponentActionRow,
					Components: []discord.Component{{
						Type:        discord.ComponentTextInput,
						CustomID:    "subject",
						Label:       "Subject",
						Style:       discord.TextInputShort,
						Placeholder: "Subject line in email",
						Required:    true,
						MinLength:   1,
						MaxLength:   maxSubjectLength,
						Value:       subject,
					}},
				},
				{
					Type: discord.ComponentActionRow,
					Components: []discord.Component{{
						Type:      discord.ComponentTextInput,
						CustomID:  "body",
						Label:     "Body",
						Style:     discord.TextInputParagraph,
						Required:  true,
						MinLength: 1,
						MaxLength: maxBodyLength,
					}},
				},
			},
		},
	}
}

// forwardMail re-sends the notification content to the session's reply-to
// list. Best-effort: a failed send is logged and acknowledged.
func (r *Router) forwardMail(ctx context.Context, in *discord.Interaction) *discord.Response {
	sess, ok := r.decodeSession(in)
	if !ok {
		return ephemeral("No data embed found")
	}

	var body string
	if len(in.Message.Embeds) > 0 {
		body = in.Message.Embeds[0].Description
	}

	mail := mailer.Mail{
		FromName:    r.fromName,
		FromAddress: r.fromAddress,
		To:          sess.ReplyTo,
		Subject:     NormalizeReplySubject(sess.Subject),
		TextBody:    body,
		InReplyTo:   sess.MessageID,
	}
	if err := r.sender.Send(ctx, mail); err != nil {
		r.logger.ErrorContext(ctx, "Failed to forward mail",
			slog.String("case_id", sess.CaseID),
			slog.String("error", err.Error()),
		)
	}
	return &discord.Response{Type: discord.ResponseDeferredMessageUpdate}
}

// routeModalSubmit sends the composed reply to the session's reply-to
// list, threading it onto the original message.
func (r *Router) routeModalSubmit(ctx context.Context, in *discord.Interaction) *discord.Response {
	if in.Data == nil || in.Data.CustomID != discord.CustomIDReply {
		return ephemeral("Unsupported custom id")
	}

	sess, ok := r.decodeSession(in)
	if !ok {
		return ephemeral("No data embed found")
	}

	mail := mailer.Mail{
		FromName:    r.fromName,
		FromAddress: r.fromAddress,
		To:          sess.ReplyTo,
		Subject:     submittedValue(in, "subject"),
		TextBody:    submittedValue(in, "body"),
		InReplyTo:   sess.MessageID,
	}
	if err := r.sender.Send(ctx, mail); err != nil {
		r.logger.ErrorContext(ctx, "Failed to send reply",
			slog.String("case_id", sess.CaseID),
			slog.String("error", err.Error()),
		)
		return ephemeral("Could not send the reply email")
	}

	r.logger.InfoContext(ctx, "Reply sent",
		slog.String("case_id", sess.CaseID),
		slog.Int("recipients", len(sess.ReplyTo)),
	)
	return &discord.Response{Type: discord.ResponseDeferredMessageUpdate}
}

// decodeSession recovers the case session from the fixed-position
// session-carrier embed of the originating message.
func (r *Router) decodeSession(in *discord.Interaction) (session.Session, bool) {
	if in.Message == nil || len(in.Message.Embeds) <= discord.SessionEmbedIndex {
		return session.Session{}, false
	}
	sess, err := session.Decode(in.Message.Embeds[discord.SessionEmbedIndex].Description)
	if err != nil {
		return session.Session{}, false
	}
	return sess, true
}

// submittedValue finds a submitted text input by custom id.
func submittedValue(in *discord.Interaction, customID string) string {
	for _, row := range in.Data.Components {
		for _, c := range row.Components {
			if c.CustomID == customID {
				return c.Value
			}
		}
	}
	return ""
}

// ephemeral builds a low-visibility message response.
func ephemeral(content string) *discord.Response {
	return &discord.Response{
		Type: discord.ResponseChannelMessage,
		Data: &discord.ResponseData{
			Content: content,
			Flags:   discord.FlagEphemeral,
		},
	}
}

// NormalizeReplySubject collapses repeated leading "Re: " markers to a
// single prefix and truncates to the form's field limit.
func NormalizeReplySubject(subject string) string {
	normalized := "Re: " + replyPrefixes.ReplaceAllString(subject, "")
	if len(normalized) > maxSubjectLength {
		normalized = normalized[:maxSubjectLength]
	}
	return normalized
}
