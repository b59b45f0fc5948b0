package email

import (
	"strings"
	"testing"
)

func sampleMessage() []byte {
	return []byte(strings.Join([]string{
		"From: Alice Example <alice@example.com>",
		"To: Bob <bob@example.com>",
		"Cc: Carol <carol@example.com>",
		"Reply-To: replies@example.com",
		"Subject: Hello World",
		"Date: Mon, 02 Jan 2006 15:04:05 -0700",
		"Message-ID: <orig-1@example.com>",
		"In-Reply-To: <prev-9@example.com>",
		"X-Spam-Status: No",
		"MIME-Version: 1.0",
		"Content-Type: multipart/mixed; boundary=BOUNDARY",
		"",
		"--BOUNDARY",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"Plain body line.",
		"--BOUNDARY",
		"Content-Type: text/html; charset=utf-8",
		"",
		"<p>HTML body</p>",
		"--BOUNDARY",
		"Content-Type: application/pdf",
		"Content-Disposition: attachment; filename=\"report.pdf\"",
		"",
		"PDFDATA",
		"--BOUNDARY--",
		"",
	}, "\r\n"))
}

func TestParse_Addressing(t *testing.T) {
	msg, err := Parse(sampleMessage())
	if err != nil {
		t.Fatalf("Parse error = %v, want nil", err)
	}

	want := Address{Name: "Alice Example", Email: "alice@example.com"}
	if msg.From != want {
		t.Errorf("From = %+v, want %+v", msg.From, want)
	}
	if len(msg.To) != 1 || msg.To[0].Email != "bob@example.com" {
		t.Errorf("To = %+v, want bob@example.com", msg.To)
	}
	if len(msg.CC) != 1 || msg.CC[0].Name != "Carol" {
		t.Errorf("CC = %+v, want Carol", msg.CC)
	}
	if len(msg.ReplyTo) != 1 || msg.ReplyTo[0].Email != "replies@example.com" {
		t.Errorf("ReplyTo = %+v, want replies@example.com", msg.ReplyTo)
	}
}

func TestParse_SubjectAndThreading(t *testing.T) {
	msg, err := Parse(sampleMessage())
	if err != nil {
		t.Fatalf("Parse error = %v, want nil", err)
	}

	if msg.Subject != "Hello World" {
		t.Errorf("Subject = %q, want %q", msg.Subject, "Hello World")
	}
	if msg.MessageID != "orig-1@example.com" {
		t.Errorf("MessageID = %q, want %q", msg.MessageID, "orig-1@example.com")
	}
	if msg.InReplyTo != "prev-9@example.com" {
		t.Errorf("InReplyTo = %q, want %q", msg.InReplyTo, "prev-9@example.com")
	}
	if msg.Date.Year() != 2006 {
		t.Errorf("Date year = %d, want 2006", msg.Date.Year())
	}
	if msg.Size != int64(len(sampleMessage())) {
		t.Errorf("Size = %d, want %d", msg.Size, len(sampleMessage()))
	}
}

func TestParse_Bodies(t *testing.T) {
	msg, err := Parse(sampleMessage())
	if err != nil {
		t.Fatalf("Parse error = %v, want nil", err)
	}

	if strings.TrimSpace(msg.TextBody) != "Plain body line." {
		t.Errorf("TextBody = %q, want %q", msg.TextBody, "Plain body line.")
	}
	if !strings.Contains(msg.HTMLBody, "<p>HTML body</p>") {
		t.Errorf("HTMLBody = %q, want it to contain the HTML part", msg.HTMLBody)
	}
}

func TestParse_Attachments(t *testing.T) {
	msg, err := Parse(sampleMessage())
	if err != nil {
		t.Fatalf("Parse error = %v, want nil", err)
	}

	if len(msg.Attachments) != 1 {
		t.Fatalf("attachments = %d, want 1", len(msg.Attachments))
	}
	a := msg.Attachments[0]
	if a.Filename != "report.pdf" {
		t.Errorf("Filename = %q, want %q", a.Filename, "report.pdf")
	}
	if a.MIMEType != "application/pdf" {
		t.Errorf("MIMEType = %q, want %q", a.MIMEType, "application/pdf")
	}
	if string(a.Content) != "PDFDATA" {
		t.Errorf("Content = %q, want %q", a.Content, "PDFDATA")
	}
}

func TestParse_HeaderList(t *testing.T) {
	msg, err := Parse(sampleMessage())
	if err != nil {
		t.Fatalf("Parse error = %v, want nil", err)
	}

	var spamStatus string
	for _, h := range msg.Headers {
		if h.Name == "X-Spam-Status" {
			spamStatus = h.Value
		}
	}
	if spamStatus != "No" {
		t.Errorf("X-Spam-Status = %q, want %q", spamStatus, "No")
	}
}

func TestDropSignatureAttachments(t *testing.T) {
	msg := &Message{Attachments: []Attachment{
		{Filename: "report.pdf"},
		{Filename: SignatureFilename},
		{Filename: "photo.png"},
	}}

	msg.DropSignatureAttachments()

	if len(msg.Attachments) != 2 {
		t.Fatalf("attachments = %d, want 2", len(msg.Attachments))
	}
	if msg.Attachments[0].Filename != "report.pdf" || msg.Attachments[1].Filename != "photo.png" {
		t.Errorf("attachments = %+v, want report.pdf then photo.png", msg.Attachments)
	}
}

func TestAddressString(t *testing.T) {
	a := Address{Name: "Alice", Email: "alice@example.com"}
	if got := a.String(); got != "Alice <alice@example.com>" {
		t.Errorf("String() = %q, want %q", got, "Alice <alice@example.com>")
	}

	bare := Address{Email: "bob@example.com"}
	if got := bare.String(); got != "bob@example.com" {
		t.Errorf("String() = %q, want %q", got, "bob@example.com")
	}
}

func TestFormatAddressList(t *testing.T) {
	got := FormatAddressList([]Address{
		{Name: "Alice", Email: "alice@example.com"},
		{Email: "bob@example.com"},
	})
	want := "Alice <alice@example.com>, bob@example.com"
	if got != want {
		t.Errorf("FormatAddressList = %q, want %q", got, want)
	}
}
