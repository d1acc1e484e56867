package notify

import (
	"os"
	"testing"

	. "github.com/onsi/gomega"
)

func TestParseMailConfigFromEnv(t *testing.T) {
	RegisterTestingT(t)

	keys := []string{"SMTP_HOST", "SMTP_PORT", "SMTP_USER", "SMTP_PASS", "SMTP_FROM", "SMTP_SKIP_TLS_VERIFY"}
	reset := func() {
		for _, k := range keys {
			os.Unsetenv(k)
		}
	}
	reset()
	defer reset()

	t.Run("missing host or sender means mail is disabled", func(t *testing.T) {
		c, err := ParseMailConfigFromEnv()
		Expect(err).To(BeNil())
		Expect(c).To(BeNil())

		os.Setenv("SMTP_HOST", "smtp.example.com")
		c, err = ParseMailConfigFromEnv()
		Expect(err).To(BeNil())
		Expect(c).To(BeNil())
	})

	t.Run("port defaults to 587", func(t *testing.T) {
		os.Setenv("SMTP_HOST", "smtp.example.com")
		os.Setenv("SMTP_FROM", "KYC Desk <no-reply@example.com>")
		os.Setenv("SMTP_USER", "desk")
		os.Setenv("SMTP_PASS", "secret")
		c, err := ParseMailConfigFromEnv()
		Expect(err).To(BeNil())
		Expect(*c).To(Equal(MailConfig{Host: "smtp.example.com", Port: 587, User: "desk", Pass: "secret",
			From: "KYC Desk <no-reply@example.com>"}))

		os.Setenv("SMTP_PORT", "2525")
		os.Setenv("SMTP_SKIP_TLS_VERIFY", "1")
		c, err = ParseMailConfigFromEnv()
		Expect(err).To(BeNil())
		Expect(c.Port).To(Equal(2525))
		Expect(c.SkipTLSVerify).To(BeTrue())
	})

	t.Run("invalid port is refused", func(t *testing.T) {
		os.Setenv("SMTP_PORT", "smtp")
		c, err := ParseMailConfigFromEnv()
		Expect(c).To(BeNil())
		Expect(err).To(MatchError("invalid SMTP_PORT 'smtp'"))
	})
}

func TestSendMail(t *testing.T) {
	RegisterTestingT(t)

	t.Run("no recipients is a no-op", func(t *testing.T) {
		Expect(SendMail(nil, "s", "b")).To(BeNil())
	})

	t.Run("unconfigured smtp is an error", func(t *testing.T) {
		origin := ActiveMailConfig
		defer func() { ActiveMailConfig = origin }()
		ActiveMailConfig = nil
		Expect(SendMail([]string{"jane@example.com"}, "s", "b")).To(MatchError("smtp not configured (SMTP_HOST/SMTP_FROM)"))
	})

	t.Run("message carries the headers and html body", func(t *testing.T) {
		m := buildMessage("desk@example.com", []string{"jane@example.com"}, "hello", "<p>hi</p>")
		Expect(m.GetHeader("From")).To(Equal([]string{"desk@example.com"}))
		Expect(m.GetHeader("To")).To(Equal([]string{"jane@example.com"}))
		Expect(m.GetHeader("Subject")).To(Equal([]string{"hello"}))
	})
}
