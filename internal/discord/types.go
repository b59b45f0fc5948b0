// Package discord provides the chat-platform wire types and REST client.
package discord

// Interaction types delivered by the platform.
const (
	InteractionPing             = 1
	InteractionMessageComponent = 3
	InteractionModalSubmit      = 5
)

// Interaction response types.
const (
	ResponsePong                  = 1
	ResponseChannelMessage        = 4
	ResponseDeferredMessageUpdate = 6
	ResponseModal                 = 9
)

// Component types.
const (
	ComponentActionRow = 1
	ComponentButton    = 2
	ComponentTextInput = 4
)

// Button styles.
const (
	ButtonPrimary   = 1
	ButtonSecondary = 2
	ButtonDanger    = 4
	ButtonLink      = 5
)

// Text input styles.
const (
	TextInputShort     = 1
	TextInputParagraph = 2
)

// FlagEphemeral marks a response visible only to the invoking user.
const FlagEphemeral = 1 << 6

// Control identifiers carried on notification components. The builder and
// the interaction router must agree on these.
const (
	CustomIDReply   = "reply"
	CustomIDForward = "forward"
	CustomIDDelete  = "delete"
)

// SessionEmbedIndex is the fixed position of the session-carrier embed in
// every notification message.
const SessionEmbedIndex = 1

// Interaction is an inbound callback from the platform.
type Interaction struct {
	Type      int              `json:"type"`
	Data      *InteractionData `json:"data,omitempty"`
	ChannelID string           `json:"channel_id,omitempty"`
	Message   *Message         `json:"message,omitempty"`
}

// InteractionData carries the activated control and, for modal
// submissions, the submitted component rows.
type InteractionData struct {
	CustomID   string      `json:"custom_id"`
	Components []Component `json:"components,omitempty"`
}

// Message is the subset of a channel message the relay reads back.
type Message struct {
	ID     string  `json:"id"`
	Embeds []Embed `json:"embeds,omitempty"`
}

// Embed is a rich display block.
type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color,omitempty"`
	Author      *EmbedAuthor `json:"author,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
	Footer      *EmbedFooter `json:"footer,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"`
}

// EmbedAuthor names the embed author.
type EmbedAuthor struct {
	Name string `json:"name"`
}

// EmbedField is a named metadata entry on an embed.
type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// EmbedFooter is the small text at the bottom of an embed.
type EmbedFooter struct {
	Text string `json:"text"`
}

// Component is an interactive control: action row, button, or text input.
type Component struct {
	Type        int         `json:"type"`
	CustomID    string      `json:"custom_id,omitempty"`
	Label       string      `json:"label,omitempty"`
	Style       int         `json:"style,omitempty"`
	URL         string      `json:"url,omitempty"`
	Placeholder string      `json:"placeholder,omitempty"`
	Required    bool        `json:"required,omitempty"`
	MinLength   int         `json:"min_length,omitempty"`
	MaxLength   int         `json:"max_length,omitempty"`
	Value       string      `json:"value,omitempty"`
	Components  []Component `json:"components,omitempty"`
}

// Response is the JSON body returned for an interaction.
type Response struct {
	Type int           `json:"type"`
	Data *ResponseData `json:"data,omitempty"`
}

// ResponseData is the payload of a Response: a message, or for modal
// responses a form definition.
type ResponseData struct {
	Content    string      `json:"content,omitempty"`
	Flags      int         `json:"flags,omitempty"`
	Title      string      `json:"title,omitempty"`
	CustomID   string      `json:"custom_id,omitempty"`
	Components []Component `json:"components,omitempty"`
}

// CreateMessagePayload is the payload_json part of a create-message call.
type CreateMessagePayload struct {
	Content     string          `json:"content"`
	Embeds      []Embed         `json:"embeds,omitempty"`
	Components  []Component     `json:"components,omitempty"`
	Attachments []AttachmentRef `json:"attachments,omitempty"`
}

// AttachmentRef is attachment metadata referencing a binary file part.
type AttachmentRef struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
}

// File is one binary part attached to a create-message call.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}
