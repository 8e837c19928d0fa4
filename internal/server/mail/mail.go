// Package mail sends the transactional mail of the service, currently only
// password reset tokens.
package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
)

// Sender delivers one reset token to one address.
type Sender interface {
	SendPasswordReset(ctx context.Context, to string, token string) error
}

type Config struct {
	Addr     string
	Username string
	Password string
	From     string
}

// sendMail is a seam for tests.
var sendMail = deliver

// deliver upgrades to TLS only when the server offers STARTTLS, so local
// relays without TLS work too.
func deliver(addr string, auth sasl.Client, from string, to []string, r io.Reader) error {
	c, err := smtp.Dial(addr)
	if err != nil {
		return err
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			return err
		}
		if err := c.StartTLS(&tls.Config{ServerName: host}); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}
	if auth != nil {
		if err := c.Auth(auth); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}
	if err := c.SendMail(from, to, r); err != nil {
		return err
	}
	return c.Quit()
}

type SMTPSender struct {
	cfg Config
	now func() time.Time
}

func NewSMTPSender(cfg Config) *SMTPSender {
	return &SMTPSender{cfg: cfg, now: time.Now}
}

func (s *SMTPSender) SendPasswordReset(ctx context.Context, to string, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body := fmt.Sprintf("Someone asked to reset the password of your gophchat account.\r\n\r\n"+
		"Your reset token is:\r\n\r\n    %s\r\n\r\n"+
		"Enter it in the client to choose a new password. If you did not ask for this, ignore this mail.\r\n", token)

	msg, err := s.compose(to, "Reset your gophchat password", body)
	if err != nil {
		return fmt.Errorf("compose mail: %w", err)
	}

	var auth sasl.Client
	if s.cfg.Username != "" {
		auth = sasl.NewPlainClient("", s.cfg.Username, s.cfg.Password)
	}
	if err := sendMail(s.cfg.Addr, auth, s.cfg.From, []string{to}, bytes.NewReader(msg)); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

func (s *SMTPSender) compose(to, subject, body string) ([]byte, error) {
	var h mail.Header
	h.SetDate(s.now())
	h.SetAddressList("From", []*mail.Address{{Name: "gophchat", Address: s.cfg.From}})
	h.SetAddressList("To", []*mail.Address{{Address: to}})
	h.SetSubject(subject)
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(w, body); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
