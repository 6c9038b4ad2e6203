package notify

import (
	"bytes"
	"context"
	"fmt"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/jhillyerd/enmime"
)

// EmailClient builds MIME messages with enmime and delivers them over SMTP.
type EmailClient struct {
	host     string
	port     int
	username string
	password string
	from     string
}

// NewEmailClient creates an e-mail sender for the given SMTP relay.
func NewEmailClient(host string, port int, username, password, from string) *EmailClient {
	return &EmailClient{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

// SendEmail delivers a plain text message to a single recipient. The ctx is
// accepted for interface symmetry; SMTP delivery is bounded by the relay's
// own connection deadlines.
func (c *EmailClient) SendEmail(ctx context.Context, toName, toAddr, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	part, err := enmime.Builder().
		From("CraftLink", c.from).
		To(toName, toAddr).
		Subject(subject).
		Text([]byte(body)).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build mime message: %w", err)
	}

	var buf bytes.Buffer
	if err := part.Encode(&buf); err != nil {
		return fmt.Errorf("failed to encode mime message: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", c.host, c.port)
	var auth sasl.Client
	if c.username != "" {
		auth = sasl.NewPlainClient("", c.username, c.password)
	}

	if err := smtp.SendMail(addr, auth, c.from, []string{toAddr}, &buf); err != nil {
		return fmt.Errorf("smtp delivery to %s failed: %w", toAddr, err)
	}

	return nil
}
