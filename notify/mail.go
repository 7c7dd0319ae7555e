package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wneessen/go-mail"
)

const mailSendTimeout = 30 * time.Second

// MailConfig holds SMTP settings for new-submission alerts
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
	// AdminURL, when set, is used to link the alert to the submission
	AdminURL string
}

// MailNotifier sends a short plain-text alert for each new submission.
// Sending runs in the background; failures are only logged.
type MailNotifier struct {
	client *mail.Client
	cfg    MailConfig
	logger *slog.Logger
}

// NewMailNotifier creates a notifier sending through the configured SMTP server
func NewMailNotifier(cfg MailConfig, l *slog.Logger) (*MailNotifier, error) {
	if cfg.From == "" || len(cfg.To) == 0 {
		return nil, fmt.Errorf("mail notifier needs a sender and at least one recipient")
	}
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(mailSendTimeout),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create mail client: %w", err)
	}
	if l == nil {
		l = slog.Default()
	}
	return &MailNotifier{
		client: client,
		cfg:    cfg,
		logger: l.With(slog.String("component", "notify_mail")),
	}, nil
}

func (n *MailNotifier) SubmissionCreated(ctx context.Context, event Event) error {
	msg, err := n.buildMessage(event)
	if err != nil {
		return err
	}

	go func() {
		sendCtx, cancel := context.WithTimeout(context.Background(), mailSendTimeout)
		defer cancel()
		if err := n.client.DialAndSendWithContext(sendCtx, msg); err != nil {
			n.logger.Warn("failed to send submission alert",
				slog.String("submission_id", event.SubmissionID.String()),
				slog.Any("error", err),
			)
		}
	}()
	return nil
}

func (n *MailNotifier) buildMessage(event Event) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(n.cfg.From); err != nil {
		return nil, fmt.Errorf("invalid sender: %w", err)
	}
	if err := msg.To(n.cfg.To...); err != nil {
		return nil, fmt.Errorf("invalid recipient: %w", err)
	}
	msg.Subject("New submission: " + event.Title)
	msg.SetBodyString(mail.TypeTextPlain, alertBody(event, n.cfg.AdminURL))
	return msg, nil
}

func alertBody(event Event, adminURL string) string {
	body := fmt.Sprintf("A new submission was received.\n\nTitle: %s\nID: %s\nReceived: %s\n",
		event.Title, event.SubmissionID, event.OccurredAt.Format(time.RFC1123))
	if adminURL != "" {
		body += fmt.Sprintf("\nView: %s/api/submissions/%s\n", adminURL, event.SubmissionID)
	}
	return body
}
