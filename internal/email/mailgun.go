package email

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
)

// MailgunSender delivers emails through the Mailgun HTTP API. The official Go
// package pulls in far more than we need, so this talks to the API directly.
type MailgunSender struct {
	client *http.Client
	domain string
	apiKey string
}

// NewMailgunSender creates a sender for the given Mailgun domain and API key.
func NewMailgunSender(client *http.Client, domain, apiKey string) *MailgunSender {
	return &MailgunSender{
		client: client,
		domain: domain,
		apiKey: apiKey,
	}
}

// Send posts the message to the Mailgun messages endpoint.
func (s *MailgunSender) Send(ctx context.Context, msg Message) error {
	fields := map[string]io.Reader{
		"from":    strings.NewReader(msg.From),
		"to":      strings.NewReader(msg.To),
		"subject": strings.NewReader(msg.Subject),
		"text":    strings.NewReader(msg.Body),
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for field, value := range fields {
		ff, err := w.CreateFormField(field)
		if err != nil {
			return err
		}
		if _, err := io.Copy(ff, value); err != nil {
			return err
		}
	}
	if err := w.Close(); err != nil {
		return err
	}

	reqURL := fmt.Sprintf("https://api.mailgun.net/v3/%s/messages", s.domain)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(buf.Bytes()))
	if err != nil {
		return fmt.Errorf("creating mailgun request: %w", err)
	}

	req.Header.Set("Content-Type", w.FormDataContentType())
	req.SetBasicAuth("api", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending mailgun request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("mailgun responded %d: %s", resp.StatusCode, string(body))
	}

	return nil
}
