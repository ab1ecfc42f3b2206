package notify

import (
	"context"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"threewloc-backend/internal/domain"
	"threewloc-backend/internal/logger"
)

// messagingClient is satisfied by *messaging.Client.
type messagingClient interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// PushSink publishes to the FCM topic "user_<id>" that the mobile app
// subscribes to after login.
type PushSink struct {
	client messagingClient
}

// NewPushSink builds an FCM client from a service account file.
func NewPushSink(ctx context.Context, credentialsFile string) (*PushSink, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, err
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, err
	}
	return &PushSink{client: client}, nil
}

func (s *PushSink) Name() string { return "fcm" }

func UserTopic(n *domain.Notification) string {
	return "user_" + n.UserID.String()
}

func (s *PushSink) Send(ctx context.Context, _ *domain.User, n *domain.Notification) error {
	data := map[string]string{
		"type":            string(n.Type),
		"notification_id": n.ID.String(),
	}
	if n.BookingID != nil {
		data["booking_id"] = n.BookingID.String()
	}
	msg := &messaging.Message{
		Topic:        UserTopic(n),
		Data:         data,
		Notification: &messaging.Notification{Title: n.Title, Body: n.Message},
	}

	logger.ExternalServiceCall("fcm", "Send", "topic", msg.Topic, "type", n.Type)
	id, err := s.client.Send(ctx, msg)
	logger.ExternalServiceResult("fcm", "Send", err, "messageID", id)
	return err
}
