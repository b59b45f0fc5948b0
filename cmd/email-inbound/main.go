// Package main implements the inbound email Lambda handler: it consumes
// mail-receipt records from SQS, transforms each message into a chat
// notification, and posts it to the configured channel.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-lambda-go/otellambda"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-lambda-go/otellambda/xrayconfig"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"github.com/mailcord/relay/internal/discord"
	"github.com/mailcord/relay/internal/email"
	"github.com/mailcord/relay/internal/forward"
	"github.com/mailcord/relay/internal/gist"
	"github.com/mailcord/relay/internal/notify"
	"github.com/mailcord/relay/internal/summary"
)

var logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
	Level: slog.LevelInfo,
}))

// Transformer builds notifications from inbound email.
type Transformer interface {
	Transform(ctx context.Context, msg *email.Message, recipient string) *notify.Notification
}

// Notifier posts notifications to the chat platform.
type Notifier interface {
	CreateMessage(ctx context.Context, channelID string, payload discord.CreateMessagePayload, files []discord.File) error
}

// receiptNotification is the mail-receipt record delivered on the queue.
// Content is the base64-encoded raw RFC 5322 message.
type receiptNotification struct {
	Recipient string `json:"recipient"`
	Content   []byte `json:"content"`
}

// handler implements the inbound email logic.
type handler struct {
	transformer   Transformer
	notifier      Notifier
	forwarder     forward.Publisher
	channelID     string
	fallbackEmail string
}

// newHandler creates a new handler.
func newHandler(transformer Transformer, notifier Notifier, forwarder forward.Publisher, channelID, fallbackEmail string) *handler {
	return &handler{
		transformer:   transformer,
		notifier:      notifier,
		forwarder:     forwarder,
		channelID:     channelID,
		fallbackEmail: fallbackEmail,
	}
}

// handle processes an SQS event of mail receipts. A record whose
// notification cannot be posted is reported as a batch item failure so
// the platform flags the delivery.
func (h *handler) handle(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	tracer := otel.Tracer("mailcord-email-inbound")
	ctx, span := tracer.Start(ctx, "EmailInboundHandler")
	defer span.End()

	var failures []events.SQSBatchItemFailure

	for _, record := range event.Records {
		if err := h.processRecord(ctx, record.Body); err != nil {
			logger.ErrorContext(ctx, "Failed to process mail receipt",
				slog.String("sqs_message_id", record.MessageId),
				slog.String("error", err.Error()),
			)
			failures = append(failures, events.SQSBatchItemFailure{
				ItemIdentifier: record.MessageId,
			})
		}
	}

	return events.SQSEventResponse{BatchItemFailures: failures}, nil
}

// processRecord relays one inbound email. The fallback forward runs
// concurrently with the transform-and-post path; only the post outcome
// decides success.
func (h *handler) processRecord(ctx context.Context, body string) error {
	var receipt receiptNotification
	if err := json.Unmarshal([]byte(body), &receipt); err != nil {
		return fmt.Errorf("parse receipt: %w", err)
	}
	if len(receipt.Content) == 0 {
		return errors.New("receipt has no message content")
	}

	msg, err := email.Parse(receipt.Content)
	if err != nil {
		return fmt.Errorf("parse email: %w", err)
	}
	msg.DropSignatureAttachments()

	g := new(errgroup.Group)
	g.Go(func() error {
		// Forward even when the notification fails: body too long, too
		// many attachments, and similar rejections must not lose mail.
		if err := h.forwarder.PublishForward(ctx, h.fallbackEmail, receipt.Content); err != nil {
			logger.ErrorContext(ctx, "Could not forward to the fallback email address",
				slog.String("recipient", receipt.Recipient),
				slog.String("error", err.Error()),
			)
		}
		return nil
	})
	g.Go(func() error {
		notification := h.transformer.Transform(ctx, msg, receipt.Recipient)
		if err := h.notifier.CreateMessage(ctx, h.channelID, notification.Payload, notification.Files); err != nil {
			return fmt.Errorf("post notification: %w", err)
		}
		logger.InfoContext(ctx, "Notification posted",
			slog.String("recipient", receipt.Recipient),
			slog.Int("attachments", len(msg.Attachments)),
			slog.Int64("size", msg.Size),
		)
		return nil
	})

	return g.Wait()
}

func main() {
	ctx := context.Background()

	tp, err := xrayconfig.NewTracerProvider(ctx)
	if err != nil {
		logger.Error("FATAL: Failed to initialize tracer provider", slog.String("error", err.Error()))
		panic(err)
	}
	otel.SetTracerProvider(tp)

	// Load config from environment
	channelID := os.Getenv("DISCORD_CHANNEL_ID")
	discordToken := os.Getenv("DISCORD_TOKEN")
	discordAPIBase := os.Getenv("DISCORD_API_BASE")
	fallbackEmail := os.Getenv("FALLBACK_EMAIL")
	forwardQueueURL := os.Getenv("FORWARD_QUEUE_URL")
	githubToken := os.Getenv("GITHUB_TOKEN")
	summaryModelID := os.Getenv("SUMMARY_MODEL_ID")

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		logger.Error("FATAL: Failed to load AWS config", slog.String("error", err.Error()))
		panic(err)
	}

	forwarder := forward.NewSQSPublisher(sqs.NewFromConfig(cfg), forwardQueueURL)

	botClient := &http.Client{
		Transport: otelhttp.NewTransport(discord.NewBotTransport(http.DefaultTransport, discordToken)),
	}
	notifier := discord.NewClient(discordAPIBase, botClient)

	var uploader notify.Uploader
	if githubToken != "" {
		gistClient := &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
		uploader = gist.NewClient("", githubToken, gistClient)
	}

	var previewer notify.Previewer
	if summaryModelID != "" {
		previewer = summary.NewBedrockPreviewer(bedrockruntime.NewFromConfig(cfg), summary.Config{
			ModelID: summaryModelID,
		})
	}

	transformer := notify.NewTransformer(uploader, previewer, logger)

	h := newHandler(transformer, notifier, forwarder, channelID, fallbackEmail)
	lambda.Start(otellambda.InstrumentHandler(h.handle, xrayconfig.WithRecommendedOptions(tp)...))
}
