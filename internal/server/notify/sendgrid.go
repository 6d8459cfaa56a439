package notify

import (
	"context"
	"errors"
	"fmt"
	"html"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type mailSender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendGridNotifier emails both sides of a new match.
type SendGridNotifier struct {
	client mailSender
	from   *mail.Email
}

func NewSendGridNotifier(apiKey, fromAddress string) *SendGridNotifier {
	return &SendGridNotifier{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail("pup", fromAddress),
	}
}

func (n *SendGridNotifier) MutualMatch(ctx context.Context, a, b Contact) error {
	return errors.Join(
		n.send(ctx, a, b),
		n.send(ctx, b, a),
	)
}

func (n *SendGridNotifier) send(ctx context.Context, to, other Contact) error {
	if to.Email == "" {
		return nil
	}

	name := other.DisplayName
	if name == "" {
		name = "Someone"
	}

	subject := "You have a new match"
	plain := fmt.Sprintf("%s admired you back. Open pup to say hello.", name)
	rich := fmt.Sprintf("<strong>%s</strong> admired you back. Open pup to say hello.", html.EscapeString(name))

	message := mail.NewSingleEmail(n.from, subject, mail.NewEmail(to.DisplayName, to.Email), plain, rich)
	resp, err := n.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("send match email to %s: %w", to.UserID, err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("send match email to %s: status %d", to.UserID, resp.StatusCode)
	}
	return nil
}
