package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/mailcord/relay/internal/email"
)

// fakeHTTPDoer implements HTTPDoer for testing.
type fakeHTTPDoer struct {
	doFunc func(req *http.Request) (*http.Response, error)
}

func (f *fakeHTTPDoer) Do(req *http.Request) (*http.Response, error) {
	return f.doFunc(req)
}

func sampleMail() Mail {
	return Mail{
		FromName:    "Mail Relay",
		FromAddress: "relay@example.com",
		To: []email.Address{
			{Name: "Alice", Email: "alice@example.com"},
		},
		Subject:   "Re: Hello",
		TextBody:  "reply body",
		InReplyTo: "orig-1@example.com",
	}
}

func TestSend_RequestShape(t *testing.T) {
	var capturedURL string
	var captured sendRequest
	fake := &fakeHTTPDoer{
		doFunc: func(req *http.Request) (*http.Response, error) {
			capturedURL = req.URL.String()
			data, _ := io.ReadAll(req.Body)
			if err := json.Unmarshal(data, &captured); err != nil {
				t.Fatalf("request body unmarshal error = %v", err)
			}
			return &http.Response{StatusCode: http.StatusAccepted, Body: http.NoBody}, nil
		},
	}

	client := NewClient("https://mail.example.com/v1", fake)
	if err := client.Send(context.Background(), sampleMail()); err != nil {
		t.Fatalf("Send error = %v, want nil", err)
	}

	if capturedURL != "https://mail.example.com/v1/send" {
		t.Errorf("URL = %q, want the send endpoint", capturedURL)
	}
	if captured.From.Email != "relay@example.com" {
		t.Errorf("from = %+v, want relay@example.com", captured.From)
	}
	if len(captured.Personalizations) != 1 || len(captured.Personalizations[0].To) != 1 {
		t.Fatalf("personalizations = %+v, want one recipient", captured.Personalizations)
	}
	if captured.Personalizations[0].To[0].Email != "alice@example.com" {
		t.Errorf("to = %+v, want alice@example.com", captured.Personalizations[0].To)
	}
	if captured.Subject != "Re: Hello" {
		t.Errorf("subject = %q, want %q", captured.Subject, "Re: Hello")
	}
	if len(captured.Content) != 1 || captured.Content[0].Value != "reply body" {
		t.Errorf("content = %+v, want the text body", captured.Content)
	}
}

func TestSend_ThreadingHeaders(t *testing.T) {
	var captured sendRequest
	fake := &fakeHTTPDoer{
		doFunc: func(req *http.Request) (*http.Response, error) {
			data, _ := io.ReadAll(req.Body)
			_ = json.Unmarshal(data, &captured)
			return &http.Response{StatusCode: http.StatusAccepted, Body: http.NoBody}, nil
		},
	}

	client := NewClient("https://mail.example.com", fake)
	if err := client.Send(context.Background(), sampleMail()); err != nil {
		t.Fatalf("Send error = %v, want nil", err)
	}

	if captured.Headers["In-Reply-To"] != "<orig-1@example.com>" {
		t.Errorf("In-Reply-To = %q, want %q", captured.Headers["In-Reply-To"], "<orig-1@example.com>")
	}
	if captured.Headers["References"] != "<orig-1@example.com>" {
		t.Errorf("References = %q, want %q", captured.Headers["References"], "<orig-1@example.com>")
	}
}

func TestSend_NoRecipients(t *testing.T) {
	fake := &fakeHTTPDoer{
		doFunc: func(req *http.Request) (*http.Response, error) {
			t.Fatal("request sent despite missing recipients")
			return nil, nil
		},
	}

	client := NewClient("https://mail.example.com", fake)
	err := client.Send(context.Background(), Mail{FromAddress: "relay@example.com"})
	if !errors.Is(err, ErrSendRejected) {
		t.Errorf("error = %v, want ErrSendRejected", err)
	}
}

func TestSend_UpstreamRejection(t *testing.T) {
	fake := &fakeHTTPDoer{
		doFunc: func(req *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusBadGateway,
				Body:       io.NopCloser(strings.NewReader("boom")),
			}, nil
		},
	}

	client := NewClient("https://mail.example.com", fake)
	err := client.Send(context.Background(), sampleMail())
	if !errors.Is(err, ErrSendRejected) {
		t.Errorf("error = %v, want ErrSendRejected", err)
	}
}
