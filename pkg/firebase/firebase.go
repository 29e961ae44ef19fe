package firebase

import (
	"context"
	"fmt"
	"log"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// App holds the initialized Firebase app and messaging client
type App struct {
	FirebaseApp     *firebase.App
	MessagingClient *messaging.Client
}

// InitFirebase initializes the Firebase application and the FCM messaging
// client used for native push
func InitFirebase(ctx context.Context, credentialsPath string) (*App, error) {
	if credentialsPath == "" {
		return nil, fmt.Errorf("Firebase credentials path not provided")
	}

	opt := option.WithCredentialsFile(credentialsPath)
	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firebase messaging client: %w", err)
	}

	log.Println("Firebase messaging initialized.")
	return &App{FirebaseApp: app, MessagingClient: client}, nil
}

// Sender adapts the messaging client to the dispatcher's PushSender
type Sender struct {
	client *messaging.Client
}

// NewSender creates a new Sender
func NewSender(client *messaging.Client) *Sender {
	return &Sender{client: client}
}

// Send delivers one push notification to one device token
func (s *Sender) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	msg := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Icon:      "ic_notification",
				Color:     "#FF6B6B",
				ChannelID: "regami_notifications",
			},
		},
	}
	_, err := s.client.Send(ctx, msg)
	return err
}
