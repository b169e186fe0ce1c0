// internal/services/notification_service.go
package services

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/distrokey/distrokey-backend/internal/config"
	"github.com/distrokey/distrokey-backend/internal/models"
)

// NotificationService emails hierarchy users about ledger events. All
// sends are fire-and-forget; the ledger never waits on SMTP.
type NotificationService struct {
	db     *gorm.DB
	config *config.Config
}

type emailTemplate struct {
	Subject string
	Body    string
}

func NewNotificationService(db *gorm.DB, config *config.Config) *NotificationService {
	return &NotificationService{
		db:     db,
		config: config,
	}
}

func (s *NotificationService) SendKeysCreditedNotification(recipient *models.User, count int) {
	tmpl := emailTemplate{
		Subject: "Keys credited to your wallet",
		Body: `<p>Hello {{.Name}},</p>
<p>{{.Count}} key(s) have been credited to your DistroKey wallet and are ready to distribute.</p>`,
	}

	s.deliver(recipient.Email, tmpl, map[string]interface{}{
		"Name":  recipient.Name,
		"Count": count,
	})
}

func (s *NotificationService) SendKeysRevokedNotification(target *models.User, count int, reason string) {
	tmpl := emailTemplate{
		Subject: "Keys revoked from your wallet",
		Body: `<p>Hello {{.Name}},</p>
<p>{{.Count}} key(s) have been revoked from your DistroKey wallet.</p>
{{if .Reason}}<p>Reason: {{.Reason}}</p>{{end}}`,
	}

	s.deliver(target.Email, tmpl, map[string]interface{}{
		"Name":   target.Name,
		"Count":  count,
		"Reason": reason,
	})
}

func (s *NotificationService) SendKeyProvisionedNotification(retailer *models.User, endUser *models.EndUser) {
	tmpl := emailTemplate{
		Subject: "Key provisioned",
		Body: `<p>Hello {{.Name}},</p>
<p>A key was provisioned for {{.EndUserName}} ({{.Phone}}).</p>`,
	}

	s.deliver(retailer.Email, tmpl, map[string]interface{}{
		"Name":        retailer.Name,
		"EndUserName": endUser.Name,
		"Phone":       endUser.Phone,
	})
}

func (s *NotificationService) SendWelcomeNotification(user *models.User, parent *models.User) {
	tmpl := emailTemplate{
		Subject: "Welcome to DistroKey",
		Body: `<p>Hello {{.Name}},</p>
<p>Your {{.Role}} account has been created by {{.ParentName}}. You can now sign in and manage your key inventory.</p>`,
	}

	s.deliver(user.Email, tmpl, map[string]interface{}{
		"Name":       user.Name,
		"Role":       user.Role,
		"ParentName": parent.Name,
	})
}

func (s *NotificationService) deliver(to string, tmpl emailTemplate, data map[string]interface{}) {
	if to == "" {
		return
	}

	body, err := s.renderTemplate(tmpl.Body, data)
	if err != nil {
		logrus.WithError(err).Error("Failed to render notification template")
		return
	}

	if err := s.sendEmail(to, tmpl.Subject, body); err != nil {
		logrus.WithError(err).WithField("to", to).Warn("Failed to send notification email")
	}
}

func (s *NotificationService) renderTemplate(body string, data map[string]interface{}) (string, error) {
	tmpl, err := template.New("email").Parse(body)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}

func (s *NotificationService) sendEmail(to, subject, body string) error {
	if s.config.Email.SMTPUsername == "" {
		// SMTP not configured; skip silently in development
		return nil
	}

	auth := smtp.PlainAuth("",
		s.config.Email.SMTPUsername,
		s.config.Email.SMTPPassword,
		s.config.Email.SMTPHost,
	)

	msg := fmt.Sprintf("From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.config.Email.FromName, s.config.Email.FromEmail, to, subject, body)

	addr := fmt.Sprintf("%s:%s", s.config.Email.SMTPHost, s.config.Email.SMTPPort)
	return smtp.SendMail(addr, auth, s.config.Email.FromEmail, []string{to}, []byte(msg))
}
