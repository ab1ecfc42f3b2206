package notify

import (
	"context"
	"fmt"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"threewloc-backend/internal/domain"
	"threewloc-backend/internal/logger"
)

// emailClient is satisfied by *sendgrid.Client.
type emailClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// EmailSink sends notifications through SendGrid.
type EmailSink struct {
	client   emailClient
	from     *mail.Email
	skipKind map[domain.NotificationType]bool
}

func NewEmailSink(apiKey, fromAddress, fromName string) *EmailSink {
	return newEmailSink(sendgrid.NewSendClient(apiKey), fromAddress, fromName)
}

func newEmailSink(client emailClient, fromAddress, fromName string) *EmailSink {
	return &EmailSink{
		client: client,
		from:   mail.NewEmail(fromName, fromAddress),
		// Operator alerts go to the dashboard only.
		skipKind: map[domain.NotificationType]bool{domain.NotificationLedgerAlert: true},
	}
}

func (s *EmailSink) Name() string { return "sendgrid" }

func (s *EmailSink) Send(ctx context.Context, user *domain.User, n *domain.Notification) error {
	if user == nil || user.Email == "" || s.skipKind[n.Type] {
		return nil
	}
	to := mail.NewEmail(user.FullName, user.Email)
	body := fmt.Sprintf("Hello %s,\n\n%s\n\nThe 3W-LOC team", user.FullName, n.Message)
	msg := mail.NewSingleEmail(s.from, n.Title, to, body, "")

	logger.ExternalServiceCall("sendgrid", "Send", "type", n.Type, "userID", user.ID)
	resp, err := s.client.SendWithContext(ctx, msg)
	if err == nil && resp.StatusCode >= 300 {
		err = fmt.Errorf("sendgrid answered %d: %s", resp.StatusCode, resp.Body)
	}
	logger.ExternalServiceResult("sendgrid", "Send", err, "type", n.Type)
	return err
}
