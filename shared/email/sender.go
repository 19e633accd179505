// Package email sends the watched-queries digest over SMTP.
package email

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"os"
	"time"

	"safetube/internal/models"
	"safetube/shared/config"
)

type Sender struct {
	config *config.EmailConfig
}

// Digest is the data handed to the digest template: the new kid-safe
// videos one watcher run discovered across all watched queries.
type Digest struct {
	Date    time.Time
	Queries []string
	Videos  []models.Video
}

func NewSender(cfg *config.EmailConfig) *Sender {
	return &Sender{
		config: cfg,
	}
}

func (s *Sender) SendDigest(digest *Digest) error {
	if digest == nil {
		return fmt.Errorf("digest cannot be nil")
	}
	if len(digest.Videos) == 0 {
		return nil // Nothing new to report
	}

	subject := fmt.Sprintf("SafeTube Digest - %d new kid-safe videos (%s)",
		len(digest.Videos), digest.Date.Format("Jan 2, 2006"))

	body, err := s.generateDigestBody(digest)
	if err != nil {
		return fmt.Errorf("failed to generate digest body: %w", err)
	}

	return s.sendViaSMTP(subject, body)
}

func (s *Sender) sendViaSMTP(subject, body string) error {
	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.SMTPServer)

	to := []string{s.config.ToEmail}
	msg := []byte(fmt.Sprintf(`To: %s
From: %s
Subject: %s
MIME-Version: 1.0
Content-Type: text/html; charset=UTF-8

%s`, s.config.ToEmail, s.config.FromEmail, subject, body))

	addr := fmt.Sprintf("%s:%d", s.config.SMTPServer, s.config.SMTPPort)
	return smtp.SendMail(addr, auth, s.config.FromEmail, to, msg)
}

func (s *Sender) generateDigestBody(digest *Digest) (string, error) {
	tmplBytes, err := os.ReadFile(s.config.TemplateFile)
	if err != nil {
		return "", fmt.Errorf("failed to read digest template: %w", err)
	}

	tmpl := template.New("digest").Funcs(template.FuncMap{
		"percent": func(f float64) int { return int(f*100 + 0.5) },
		"minutes": func(seconds int) int { return seconds / 60 },
	})

	tmpl, err = tmpl.Parse(string(tmplBytes))
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, digest); err != nil {
		return "", err
	}

	return buf.String(), nil
}
