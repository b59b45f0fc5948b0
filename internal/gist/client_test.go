package gist

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/mailcord/relay/internal/email"
)

// fakeHTTPDoer implements HTTPDoer for testing.
type fakeHTTPDoer struct {
	doFunc func(req *http.Request) (*http.Response, error)
}

func (f *fakeHTTPDoer) Do(req *http.Request) (*http.Response, error) {
	return f.doFunc(req)
}

func sampleMessage() *email.Message {
	return &email.Message{
		From:     email.Address{Name: "Alice", Email: "alice@example.com"},
		To:       []email.Address{{Email: "inbox@example.com"}},
		Subject:  "Hello",
		TextBody: "plain text",
		HTMLBody: "<p>html</p>",
		Headers:  []email.Header{{Name: "X-Test", Value: "1"}},
		Attachments: []email.Attachment{
			{Filename: "a.txt", Content: []byte("attachment data")},
			{Filename: "empty.txt"},
		},
		Date: time.Now(),
	}
}

func successResponse() *http.Response {
	body := `{
		"html_url": "https://gist.example.com/abc",
		"files": {"readme.txt": {"raw_url": "https://gist.example.com/raw/readme.txt"}}
	}`
	return &http.Response{
		StatusCode: http.StatusCreated,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestUpload_BuildsFileSet(t *testing.T) {
	var captured createRequest
	fake := &fakeHTTPDoer{
		doFunc: func(req *http.Request) (*http.Response, error) {
			data, _ := io.ReadAll(req.Body)
			if err := json.Unmarshal(data, &captured); err != nil {
				t.Fatalf("request body unmarshal error = %v", err)
			}
			return successResponse(), nil
		},
	}

	client := NewClient("https://api.example.com", "gh-token", fake)
	_, err := client.Upload(context.Background(), sampleMessage(), "new mail")
	if err != nil {
		t.Fatalf("Upload error = %v, want nil", err)
	}

	if captured.Public {
		t.Error("Public = true, want false")
	}
	for _, name := range []string{"headers.txt", "readme.txt", "readme.html", "attachment-a.txt"} {
		if _, ok := captured.Files[name]; !ok {
			t.Errorf("files missing %q", name)
		}
	}
	if _, ok := captured.Files["attachment-empty.txt"]; ok {
		t.Error("files include empty attachment, want it skipped")
	}
	if !strings.Contains(captured.Files["headers.txt"].Content, "From: Alice <alice@example.com>") {
		t.Errorf("headers.txt = %q, want From line", captured.Files["headers.txt"].Content)
	}
	if !strings.Contains(captured.Files["headers.txt"].Content, "X-Test: 1") {
		t.Errorf("headers.txt = %q, want raw header list", captured.Files["headers.txt"].Content)
	}
}

func TestUpload_ReturnsHostedLinks(t *testing.T) {
	fake := &fakeHTTPDoer{
		doFunc: func(req *http.Request) (*http.Response, error) {
			return successResponse(), nil
		},
	}

	client := NewClient("https://api.example.com", "gh-token", fake)
	links, err := client.Upload(context.Background(), sampleMessage(), "new mail")
	if err != nil {
		t.Fatalf("Upload error = %v, want nil", err)
	}

	if links.FullURL != "https://gist.example.com/abc" {
		t.Errorf("FullURL = %q, want gist html_url", links.FullURL)
	}
	want := htmlPreviewBase + "https://gist.example.com/raw/readme.txt"
	if links.HTMLURL != want {
		t.Errorf("HTMLURL = %q, want %q", links.HTMLURL, want)
	}
}

func TestUpload_SetsAuthHeaders(t *testing.T) {
	var auth, version string
	fake := &fakeHTTPDoer{
		doFunc: func(req *http.Request) (*http.Response, error) {
			auth = req.Header.Get("Authorization")
			version = req.Header.Get("X-GitHub-Api-Version")
			return successResponse(), nil
		},
	}

	client := NewClient("https://api.example.com", "gh-token", fake)
	if _, err := client.Upload(context.Background(), sampleMessage(), "new mail"); err != nil {
		t.Fatalf("Upload error = %v, want nil", err)
	}

	if auth != "Bearer gh-token" {
		t.Errorf("Authorization = %q, want %q", auth, "Bearer gh-token")
	}
	if version != apiVersion {
		t.Errorf("X-GitHub-Api-Version = %q, want %q", version, apiVersion)
	}
}

func TestUpload_Rejection(t *testing.T) {
	fake := &fakeHTTPDoer{
		doFunc: func(req *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusUnprocessableEntity,
				Body:       io.NopCloser(strings.NewReader("nope")),
			}, nil
		},
	}

	client := NewClient("https://api.example.com", "gh-token", fake)
	_, err := client.Upload(context.Background(), sampleMessage(), "new mail")
	if !errors.Is(err, ErrUploadRejected) {
		t.Errorf("error = %v, want ErrUploadRejected", err)
	}
}
