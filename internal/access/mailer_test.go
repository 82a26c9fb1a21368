package access

import (
	"context"
	"errors"
	"net/smtp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/proposals/internal/config"
	"github.com/nurpe/proposals/internal/model"
)

func TestSMTPMailerSendsInvitation(t *testing.T) {
	mailer := NewSMTPMailer(config.SMTPConfig{
		Host: "smtp.example.com", Port: 2525, Username: "bot", Password: "secret", From: "team@example.com",
	})

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg string
	mailer.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, string(msg)
		return nil
	}

	err := mailer.SendInvitation(context.Background(), Invitation{
		Email:     "writer@example.com",
		Name:      "Writer",
		Role:      model.RoleTeamMember,
		Link:      "https://app.example.com/accept-invite?token=abc",
		ExpiresAt: time.Date(2026, 1, 2, 15, 4, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Equal(t, "smtp.example.com:2525", gotAddr)
	assert.Equal(t, "team@example.com", gotFrom)
	assert.Equal(t, []string{"writer@example.com"}, gotTo)
	assert.Contains(t, gotMsg, "To: writer@example.com\r\n")
	assert.Contains(t, gotMsg, "Content-Type: text/html; charset=UTF-8")
	assert.Contains(t, gotMsg, "team member")
	assert.Contains(t, gotMsg, `href="https://app.example.com/accept-invite?token=abc"`)
	assert.Contains(t, gotMsg, "Jan 2, 2026 15:04 UTC")
}

func TestSMTPMailerWrapsSendError(t *testing.T) {
	mailer := NewSMTPMailer(config.SMTPConfig{Host: "smtp.example.com", Port: 25, From: "team@example.com"})
	assert.Nil(t, mailer.auth)

	boom := errors.New("connection refused")
	mailer.send = func(string, smtp.Auth, string, []string, []byte) error { return boom }

	err := mailer.SendInvitation(context.Background(), Invitation{Email: "a@example.com", Role: model.RoleAdmin})
	assert.ErrorIs(t, err, boom)
}
