package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

type EmailService struct {
	client    *resend.Client
	fromEmail string
	isDev     bool
	appURL    string
	appName   string
}

func NewEmailService(apiKey, fromEmail, appURL, appName string, isDev bool) *EmailService {
	var client *resend.Client
	if apiKey != "" && !isDev {
		client = resend.NewClient(apiKey)
	}

	return &EmailService{
		client:    client,
		fromEmail: fromEmail,
		isDev:     isDev,
		appURL:    appURL,
		appName:   appName,
	}
}

func (s *EmailService) send(emailType, to, subject, body string) error {
	if s.isDev {
		slog.Info("email sent (dev mode)", "type", emailType, "to", to, "subject", subject)
		return nil
	}

	if s.client == nil {
		return fmt.Errorf("email service not configured (missing RESEND_API_KEY)")
	}

	params := &resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{to},
		Subject: subject,
		Text:    body,
	}

	_, err := s.client.Emails.SendWithContext(context.Background(), params)
	if err == nil {
		slog.Info("email sent", "type", emailType, "to", to)
	}
	return err
}

// SendMagicLinkEmail sends the one-time sign-in link. The optional invite
// token rides along as a query parameter so it survives the auth flow.
func (s *EmailService) SendMagicLinkEmail(email, token, inviteToken string) error {
	magicURL := fmt.Sprintf("%s/api/auth/verify?token=%s", s.appURL, token)
	if inviteToken != "" {
		magicURL += "&invite=" + inviteToken
	}
	subject, body := magicLinkEmailTemplate(magicURL, s.appName)
	return s.send("magic_link", email, subject, body)
}

// SendInviteEmail sends the course invite link to the invited address.
func (s *EmailService) SendInviteEmail(email, inviteToken, courseTitle string) error {
	inviteURL := fmt.Sprintf("%s/invite/%s", s.appURL, inviteToken)
	subject, body := inviteEmailTemplate(inviteURL, courseTitle, s.appName)
	return s.send("course_invite", email, subject, body)
}

func (s *EmailService) SendWelcomeEmail(email, firstName string) error {
	subject, body := welcomeEmailTemplate(firstName, s.appURL, s.appName)
	return s.send("welcome", email, subject, body)
}
