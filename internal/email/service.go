package email

import (
	"context"
	"fmt"
	"strings"
)

// Service composes and dispatches the application's emails through a Sender.
type Service struct {
	sender  Sender
	from    string
	baseURL string
}

// NewService creates a Service. baseURL is the externally reachable origin of
// the API, used to build links embedded in emails.
func NewService(sender Sender, from, baseURL string) *Service {
	return &Service{
		sender:  sender,
		from:    from,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// SendVerification emails a confirmation link containing the verification
// token to a freshly registered (or still unverified) account.
func (s *Service) SendVerification(ctx context.Context, to, token string) error {
	link := fmt.Sprintf("%s/api/auth/confirm_email/%s", s.baseURL, token)

	body := fmt.Sprintf(
		"Welcome to Contactbook!\n\n"+
			"Confirm your email address by opening the link below:\n\n"+
			"%s\n\n"+
			"If you did not sign up, you can safely ignore this message.\n",
		link,
	)

	return s.sender.Send(ctx, Message{
		From:    s.from,
		To:      to,
		Subject: "Confirm your email address",
		Body:    body,
	})
}
