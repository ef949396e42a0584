package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridSender implements Sender over the SendGrid v3 API.
type SendGridSender struct {
	fromName    string
	fromAddress string
	send        func(ctx context.Context, message *sgmail.SGMailV3) (*rest.Response, error)
}

// NewSendGridSender constructs a sender using the given API key and sender
// identity.
func NewSendGridSender(apiKey, fromName, fromAddress string) (*SendGridSender, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("mail: sendgrid api key is required")
	}
	fromAddress = strings.TrimSpace(fromAddress)
	if fromAddress == "" {
		return nil, errors.New("mail: from address is required")
	}

	client := sendgrid.NewSendClient(apiKey)
	return &SendGridSender{
		fromName:    strings.TrimSpace(fromName),
		fromAddress: fromAddress,
		send: func(ctx context.Context, message *sgmail.SGMailV3) (*rest.Response, error) {
			return client.SendWithContext(ctx, message)
		},
	}, nil
}

// Send delivers the message and maps the API response onto a Result.
func (s *SendGridSender) Send(ctx context.Context, to, subject, body string) (Result, error) {
	to = strings.TrimSpace(to)
	if to == "" {
		return Result{}, errors.New("mail: recipient is required")
	}

	from := sgmail.NewEmail(s.fromName, s.fromAddress)
	recipient := sgmail.NewEmail("", to)
	message := sgmail.NewSingleEmail(from, subject, recipient, body, "")

	resp, err := s.send(ctx, message)
	if err != nil {
		return Result{Success: false, Message: err.Error()}, fmt.Errorf("mail: send to %s: %w", to, err)
	}
	if resp.StatusCode >= 400 {
		msg := fmt.Sprintf("sendgrid returned status %d", resp.StatusCode)
		return Result{Success: false, Message: msg}, errors.New("mail: " + msg)
	}
	return Result{Success: true, Message: "sent"}, nil
}
