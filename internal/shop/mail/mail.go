// Package mail delivers transactional email such as password-reset codes.
package mail

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned by a dispatcher missing required settings.
var ErrNotConfigured = errors.New("mail: dispatcher not configured")

type Message struct {
	To      string
	Subject string
	Body    string // plain text
}

// Dispatcher sends a message. Implementations must honour ctx cancellation.
type Dispatcher interface {
	Send(ctx context.Context, msg Message) error
}

// ResetCodeMessage builds the password-reset email for code.
func ResetCodeMessage(to, code string) Message {
	return Message{
		To:      to,
		Subject: "Your Password Reset Code",
		Body:    "Your reset code is: " + code,
	}
}
