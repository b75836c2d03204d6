package alerting

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	mail "github.com/wneessen/go-mail"

	"cardwatch/internal/arbitrage"
)

// EmailOptions parameterise SMTP delivery.
type EmailOptions struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
	UseSSL   bool
}

// EmailNotifier sends one HTML mail per alert over SMTP.
type EmailNotifier struct {
	opts   EmailOptions
	logger zerolog.Logger
}

// NewEmailNotifier constructs an SMTP notifier.
func NewEmailNotifier(opts EmailOptions, logger zerolog.Logger) *EmailNotifier {
	if opts.Port <= 0 {
		opts.Port = 465
	}
	return &EmailNotifier{
		opts:   opts,
		logger: logger.With().Str("component", "alert_email").Logger(),
	}
}

// Notify composes and sends the alert mail.
func (n *EmailNotifier) Notify(ctx context.Context, alert arbitrage.Alert) error {
	msg := mail.NewMsg()
	if err := msg.From(n.opts.From); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := msg.To(n.opts.To...); err != nil {
		return fmt.Errorf("set recipients: %w", err)
	}
	msg.Subject(fmt.Sprintf("🎴 Alerte prix - %s", alert.ItemName))
	msg.SetBodyString(mail.TypeTextHTML, renderEmailBody(alert))

	clientOpts := []mail.Option{
		mail.WithPort(n.opts.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(n.opts.Username),
		mail.WithPassword(n.opts.Password),
	}
	if n.opts.UseSSL {
		clientOpts = append(clientOpts, mail.WithSSL())
	}

	client, err := mail.NewClient(n.opts.Host, clientOpts...)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send alert mail: %w", err)
	}

	n.logger.Info().Str("item", alert.ItemName).Msg("告警邮件已发送")
	return nil
}

func renderEmailBody(alert arbitrage.Alert) string {
	builder := strings.Builder{}
	builder.WriteString("<html><body>")
	builder.WriteString(fmt.Sprintf("<h2>Alerte de prix pour %s</h2>", alert.ItemName))
	builder.WriteString("<p>Une offre moins chère a été trouvée sur Vinted !</p>")
	builder.WriteString("<ul>")
	builder.WriteString(fmt.Sprintf("<li>Prix Cardmarket : %s€</li>", alert.BasePrice.StringFixed(2)))
	builder.WriteString(fmt.Sprintf("<li>Prix Vinted : %s€</li>", alert.CandidatePrice.StringFixed(2)))
	builder.WriteString(fmt.Sprintf("<li>Différence : %s€ (%s%%)</li>", alert.Difference.StringFixed(2), alert.DifferencePct.StringFixed(1)))
	builder.WriteString("</ul>")
	builder.WriteString(fmt.Sprintf(`<p><a href="%s">Voir l'annonce sur Vinted</a></p>`, alert.ListingURL))
	builder.WriteString("</body></html>")
	return builder.String()
}

var _ Notifier = (*EmailNotifier)(nil)
