// Package main implements the interactions Lambda handler behind a
// function URL: it authenticates interaction callbacks and routes them.
package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-lambda-go/otellambda"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-lambda-go/otellambda/xrayconfig"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"

	"github.com/mailcord/relay/internal/discord"
	"github.com/mailcord/relay/internal/mailer"
	"github.com/mailcord/relay/internal/route"
	"github.com/mailcord/relay/internal/signature"
)

var logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
	Level: slog.LevelInfo,
}))

const (
	headerSignature = "x-signature-ed25519"
	headerTimestamp = "x-signature-timestamp"

	// projectURL is where bare browser visits are redirected.
	projectURL = "https://github.com/mailcord/relay"
)

// InteractionRouter dispatches verified interactions.
type InteractionRouter interface {
	Route(ctx context.Context, in *discord.Interaction) *discord.Response
}

// handler implements the interactions endpoint logic.
type handler struct {
	publicKey string
	router    InteractionRouter
}

// newHandler creates a new handler.
func newHandler(publicKey string, router InteractionRouter) *handler {
	return &handler{
		publicKey: publicKey,
		router:    router,
	}
}

// handle authenticates and routes one interaction request. Requests
// without the signature headers are redirected to the project page;
// requests failing verification are rejected with 401.
func (h *handler) handle(ctx context.Context, req events.LambdaFunctionURLRequest) (events.LambdaFunctionURLResponse, error) {
	tracer := otel.Tracer("mailcord-interactions")
	ctx, span := tracer.Start(ctx, "InteractionsHandler")
	defer span.End()

	sig := req.Headers[headerSignature]
	timestamp := req.Headers[headerTimestamp]
	if sig == "" || timestamp == "" {
		return events.LambdaFunctionURLResponse{
			StatusCode: http.StatusFound,
			Headers:    map[string]string{"Location": projectURL},
		}, nil
	}

	// Verification must cover the exact bytes that get parsed below.
	rawBody := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return unauthorized(), nil
		}
		rawBody = decoded
	}

	if !signature.Verify(rawBody, timestamp, sig, h.publicKey) {
		logger.WarnContext(ctx, "Rejected interaction with bad signature")
		return unauthorized(), nil
	}

	var interaction discord.Interaction
	if err := json.Unmarshal(rawBody, &interaction); err != nil {
		logger.ErrorContext(ctx, "Failed to parse interaction body",
			slog.String("error", err.Error()),
		)
		return events.LambdaFunctionURLResponse{
			StatusCode: http.StatusBadRequest,
			Body:       "Bad Request",
		}, nil
	}

	response := h.router.Route(ctx, &interaction)
	body, err := json.Marshal(response)
	if err != nil {
		return events.LambdaFunctionURLResponse{StatusCode: http.StatusInternalServerError}, err
	}

	return events.LambdaFunctionURLResponse{
		StatusCode: http.StatusOK,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(body),
	}, nil
}

func unauthorized() events.LambdaFunctionURLResponse {
	return events.LambdaFunctionURLResponse{
		StatusCode: http.StatusUnauthorized,
		Body:       "Unauthorized",
	}
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
	publicKey := os.Getenv("DISCORD_PUBLIC_KEY")
	discordToken := os.Getenv("DISCORD_TOKEN")
	discordAPIBase := os.Getenv("DISCORD_API_BASE")
	mailAPIBase := os.Getenv("MAIL_API_BASE")
	mailFromName := os.Getenv("MAIL_FROM_NAME")
	mailFromAddress := os.Getenv("MAIL_FROM_ADDRESS")

	botClient := &http.Client{
		Transport: otelhttp.NewTransport(discord.NewBotTransport(http.DefaultTransport, discordToken)),
	}
	deleter := discord.NewClient(discordAPIBase, botClient)

	mailClient := &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	sender := mailer.NewClient(mailAPIBase, mailClient)

	router := route.NewRouter(deleter, sender, mailFromName, mailFromAddress, logger)

	h := newHandler(publicKey, router)
	lambda.Start(otellambda.InstrumentHandler(h.handle, xrayconfig.WithRecommendedOptions(tp)...))
}
