package mail

import (
	"context"
	"fmt"
	"html"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// Sender delivers a plain-text email
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SendGridClient implements Sender
type SendGridClient struct {
	apiKey   string
	from     string
	fromName string
	// API host; empty means api.sendgrid.com
	host   string
	logger *zap.Logger
}

func NewSendGridClient(apiKey, from, fromName string, logger *zap.Logger) *SendGridClient {
	return &SendGridClient{
		apiKey:   apiKey,
		from:     from,
		fromName: fromName,
		logger:   logger.Named("mail"),
	}
}

// Send sends an email using SendGrid
func (c *SendGridClient) Send(ctx context.Context, to, subject, body string) error {
	if c.apiKey == "" {
		return fmt.Errorf("sendgrid api key is empty")
	}
	if c.from == "" {
		return fmt.Errorf("from address is empty")
	}
	if to == "" {
		return fmt.Errorf("to address is empty")
	}

	message := mail.NewSingleEmail(
		mail.NewEmail(c.fromName, c.from),
		subject,
		mail.NewEmail("", to),
		body,
		fmt.Sprintf("<pre>%s</pre>", html.EscapeString(body)),
	)

	request := sendgrid.GetRequest(c.apiKey, "/v3/mail/send", c.host)
	request.Method = rest.Post
	request.Body = mail.GetRequestBody(message)

	response, err := sendgrid.MakeRequestWithContext(ctx, request)
	if err != nil {
		return fmt.Errorf("sendgrid send error: %w", err)
	}

	if response.StatusCode >= 400 {
		c.logger.Warn("sendgrid rejected message",
			zap.Int("status", response.StatusCode),
			zap.String("body", response.Body),
		)
		return fmt.Errorf("sendgrid send failed: status=%d, body=%s", response.StatusCode, response.Body)
	}

	c.logger.Info("mail sent",
		zap.Int("status", response.StatusCode),
		zap.String("to", to),
		zap.String("subject", subject),
	)
	return nil
}
