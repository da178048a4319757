package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/greenshan/portfolio-backend/config"
	"github.com/greenshan/portfolio-backend/models"
)

// ResendEmailRequest represents the request payload for Resend API
type ResendEmailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Html    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
}

// ResendEmailResponse represents the response from Resend API
type ResendEmailResponse struct {
	ID string `json:"id"`
}

// SendEmail sends an email using the Resend API.
//
// Requires environment variables:
//   - RESEND_API_KEY: Your Resend API key
//   - RESEND_FROM_EMAIL: The sender address (e.g., "Site <site@example.com>")
func SendEmail(subject, body string, recipients []string) error {
	if len(recipients) == 0 {
		return fmt.Errorf("at least one recipient is required")
	}

	c := config.New()
	apiKey := config.GetString(c, "RESEND_API_KEY", "")
	if apiKey == "" {
		return fmt.Errorf("RESEND_API_KEY is not set")
	}
	fromEmail := config.GetString(c, "RESEND_FROM_EMAIL", "Portfolio <noreply@localhost>")

	payload := ResendEmailRequest{
		From:    fromEmail,
		To:      recipients,
		Subject: subject,
		Text:    body,
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling email request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, "https://api.resend.com/emails", bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("building email request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("email service returned %d: %s", resp.StatusCode, string(respBody))
	}

	var result ResendEmailResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil && result.ID != "" {
		log.Debug().Str("emailID", result.ID).Msg("Email accepted by Resend")
	}
	return nil
}

// NotifyContactRequest emails the staff inbox about a new contact form
// submission. Failures are logged, never surfaced to the public submitter.
func NotifyContactRequest(request *models.ContactRequest) {
	c := config.New()
	staffEmail := config.GetString(c, "CONTACT_NOTIFY_EMAIL", "")
	if staffEmail == "" {
		return
	}

	subject := "New contact request"
	if request.Subject != "" {
		subject = "New contact request: " + request.Subject
	}
	body := fmt.Sprintf("From: %s <%s>\n\n%s", request.Name, request.Email, request.Message)

	if err := SendEmail(subject, body, []string{staffEmail}); err != nil {
		log.Warn().Err(err).Msg("Failed to send contact notification email")
	}
}
