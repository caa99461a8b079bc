package services

import (
	"log"
	"os"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Message is a rendered notification, ready to send.
type Message struct {
	ToEmail string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

// Notifier is any service that can deliver messages. Delivery is
// fire-and-forget: one attempt, failures are logged and dropped. State
// changes are never rolled back against a failed send.
type Notifier interface {
	SendMessages(messages ...*Message)
}

// NewNotifier picks SendGrid when an API key is configured, otherwise the
// console fallback (local dev).
func NewNotifier() Notifier {
	key := os.Getenv("SENDGRID_API_KEY")
	from := os.Getenv("EMAIL_FROM")
	if from == "" {
		from = "noreply@academy.local"
	}
	if key == "" {
		log.Println("⚠️  SENDGRID_API_KEY not set — emails will be printed to console")
		return &consoleNotifier{}
	}
	return &sendgridNotifier{
		key:  key,
		from: sgmail.NewEmail("AI Academy", from),
	}
}

type sendgridNotifier struct {
	key  string
	from *sgmail.Email
}

func (n *sendgridNotifier) SendMessages(messages ...*Message) {
	for _, msg := range messages {
		msg := msg
		go func() {
			to := sgmail.NewEmail(msg.ToName, msg.ToEmail)
			m := sgmail.NewSingleEmail(n.from, msg.Subject, to, msg.Text, msg.HTML)
			client := sendgrid.NewSendClient(n.key)
			resp, err := client.Send(m)
			if err != nil {
				log.Printf("⚠️ email send failed (to=%s subject=%q): %v", msg.ToEmail, msg.Subject, err)
				return
			}
			if resp.StatusCode >= 400 {
				log.Printf("⚠️ email rejected (to=%s subject=%q): status %d", msg.ToEmail, msg.Subject, resp.StatusCode)
			}
		}()
	}
}

type consoleNotifier struct{}

func (n *consoleNotifier) SendMessages(messages ...*Message) {
	for _, msg := range messages {
		log.Printf("📧 [console email] to=%s subject=%q\n%s", msg.ToEmail, msg.Subject, msg.Text)
	}
}
