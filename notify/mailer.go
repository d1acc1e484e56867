package notify

import (
	"crypto/tls"
	"errors"
	"os"
	"strconv"
	"strings"

	mail "github.com/go-mail/mail/v2"
)

type MailConfig struct {
	Host          string
	Port          int
	User          string
	Pass          string
	From          string // e.g. "KYC Desk <no-reply@bank.example>"
	SkipTLSVerify bool
}

var (
	ActiveMailConfig *MailConfig

	SendMailFunc = SendMail
)

// ParseMailConfigFromEnv reads SMTP_HOST, SMTP_PORT (default 587), SMTP_USER, SMTP_PASS, SMTP_FROM
// and SMTP_SKIP_TLS_VERIFY=1. It returns nil when SMTP_HOST or SMTP_FROM is missing.
func ParseMailConfigFromEnv() (*MailConfig, error) {
	host := strings.TrimSpace(os.Getenv("SMTP_HOST"))
	from := strings.TrimSpace(os.Getenv("SMTP_FROM"))
	if host == "" || from == "" {
		return nil, nil
	}
	port := 587
	if v := strings.TrimSpace(os.Getenv("SMTP_PORT")); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil || p <= 0 {
			return nil, errors.New("invalid SMTP_PORT '" + v + "'")
		}
		port = p
	}
	return &MailConfig{Host: host, Port: port, User: os.Getenv("SMTP_USER"), Pass: os.Getenv("SMTP_PASS"),
		From: from, SkipTLSVerify: os.Getenv("SMTP_SKIP_TLS_VERIFY") == "1"}, nil
}

func buildMessage(from string, to []string, subject, html string) *mail.Message {
	m := mail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", html)
	return m
}

// SendMail delivers over STARTTLS with the active configuration
func SendMail(to []string, subject, html string) error {
	if len(to) == 0 {
		return nil
	}
	c := ActiveMailConfig
	if c == nil {
		return errors.New("smtp not configured (SMTP_HOST/SMTP_FROM)")
	}

	d := mail.NewDialer(c.Host, c.Port, c.User, c.Pass)
	d.StartTLSPolicy = mail.MandatoryStartTLS
	d.TLSConfig = &tls.Config{ServerName: c.Host, InsecureSkipVerify: c.SkipTLSVerify}
	return d.DialAndSend(buildMessage(c.From, to, subject, html))
}
