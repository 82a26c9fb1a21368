package access

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/nurpe/proposals/internal/config"
	"github.com/nurpe/proposals/internal/model"
)

type Invitation struct {
	Email     string
	Name      string
	Role      model.Role
	Link      string
	ExpiresAt time.Time
}

type Mailer interface {
	SendInvitation(ctx context.Context, inv Invitation) error
}

type LogMailer struct {
	log zerolog.Logger
}

func NewLogMailer(log zerolog.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) SendInvitation(_ context.Context, inv Invitation) error {
	m.log.Info().
		Str("email", inv.Email).
		Str("role", string(inv.Role)).
		Str("link", inv.Link).
		Time("expires_at", inv.ExpiresAt).
		Msg("invitation issued")
	return nil
}

type SMTPMailer struct {
	cfg  config.SMTPConfig
	auth smtp.Auth
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &SMTPMailer{cfg: cfg, auth: auth, send: smtp.SendMail}
}

func (m *SMTPMailer) SendInvitation(_ context.Context, inv Invitation) error {
	var body bytes.Buffer
	if err := invitationTemplate.Execute(&body, inv); err != nil {
		return fmt.Errorf("render invitation: %w", err)
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "To: %s\r\n", inv.Email)
	fmt.Fprintf(&msg, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&msg, "Subject: %s\r\n", "You have been invited to edit the proposal")
	fmt.Fprintf(&msg, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: text/html; charset=UTF-8\r\n")
	fmt.Fprintf(&msg, "\r\n")
	msg.Write(body.Bytes())

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	if err := m.send(addr, m.auth, m.cfg.From, []string{inv.Email}, msg.Bytes()); err != nil {
		return fmt.Errorf("send invitation: %w", err)
	}
	return nil
}

var invitationTemplate = template.Must(template.New("invitation").Funcs(template.FuncMap{
	"role": func(r model.Role) string { return strings.ReplaceAll(string(r), "_", " ") },
}).Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>Invitation</title></head>
<body style="font-family: sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto;">
  <h2>Hi {{.Name}},</h2>
  <p>You have been invited to join the proposal team as {{role .Role}}.</p>
  <p><a href="{{.Link}}">Accept the invitation and set your password</a></p>
  <p>This link expires on {{.ExpiresAt.Format "Jan 2, 2006 15:04 MST"}}.</p>
</body>
</html>`))
