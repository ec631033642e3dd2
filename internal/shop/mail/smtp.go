package mail

import (
	"context"
	"fmt"
	"time"

	gomail "github.com/wneessen/go-mail"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string // also used as the From address
	Password string
	Timeout  time.Duration
}

// SMTPDispatcher sends mail through an authenticated SMTP relay. Port 465
// uses implicit TLS, anything else requires STARTTLS.
type SMTPDispatcher struct {
	cfg SMTPConfig
}

func NewSMTPDispatcher(cfg SMTPConfig) (*SMTPDispatcher, error) {
	if cfg.Host == "" || cfg.Username == "" || cfg.Password == "" {
		return nil, ErrNotConfigured
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &SMTPDispatcher{cfg: cfg}, nil
}

func (d *SMTPDispatcher) message(msg Message) (*gomail.Msg, error) {
	m := gomail.NewMsg()
	if err := m.From(d.cfg.Username); err != nil {
		return nil, fmt.Errorf("mail: from: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("mail: to: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextPlain, msg.Body)
	return m, nil
}

func (d *SMTPDispatcher) client() (*gomail.Client, error) {
	opts := []gomail.Option{
		gomail.WithPort(d.cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(d.cfg.Username),
		gomail.WithPassword(d.cfg.Password),
		gomail.WithTimeout(d.cfg.Timeout),
	}
	if d.cfg.Port == 465 {
		opts = append(opts, gomail.WithSSL())
	} else {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSMandatory))
	}
	return gomail.NewClient(d.cfg.Host, opts...)
}

// Send dials, delivers msg and hangs up. One connection per message keeps
// the dispatcher stateless.
func (d *SMTPDispatcher) Send(ctx context.Context, msg Message) error {
	m, err := d.message(msg)
	if err != nil {
		return err
	}
	c, err := d.client()
	if err != nil {
		return fmt.Errorf("mail: client: %w", err)
	}
	if err := c.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("mail: send: %w", err)
	}
	return nil
}
