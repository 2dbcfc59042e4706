package notifications

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"

	"github.com/sentinel-labs/financial-sentinel/internal/config"
	"github.com/sentinel-labs/financial-sentinel/internal/models"
)

// Service delivers alerts via Slack webhook and email.
type Service struct {
	config *config.Config
	client *resty.Client
}

// Ensure Service implements NotificationInterface
var _ NotificationInterface = (*Service)(nil)

// slackMessage is a Block Kit payload for an incoming webhook.
type slackMessage struct {
	Text   string       `json:"text"`
	Blocks []slackBlock `json:"blocks,omitempty"`
}

type slackBlock struct {
	Type   string      `json:"type"`
	Text   *slackText  `json:"text,omitempty"`
	Fields []slackText `json:"fields,omitempty"`
}

type slackText struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Emoji bool   `json:"emoji,omitempty"`
}

// NewService creates a new notification service
func NewService(cfg *config.Config) *Service {
	return &Service{
		config: cfg,
		client: resty.New().SetTimeout(30 * time.Second),
	}
}

// SendAlert delivers one alert through every configured channel. Channel
// failures are collected so one bad channel does not hide the others.
func (s *Service) SendAlert(alert *models.Alert) error {
	var errs []string

	if s.config.SlackWebhookURL != "" {
		if err := s.sendToSlack(alert); err != nil {
			logrus.Errorf("Failed to send Slack alert: %v", err)
			errs = append(errs, fmt.Sprintf("Slack: %v", err))
		} else {
			logrus.Infof("Sent %s alert for %s to Slack", alert.RiskLevel, alert.Institution)
		}
	}

	if s.config.NotificationEmail != "" {
		if err := s.sendEmail(alert); err != nil {
			logrus.Errorf("Failed to send email alert: %v", err)
			errs = append(errs, fmt.Sprintf("Email: %v", err))
		} else {
			logrus.Infof("Sent %s alert for %s via email", alert.RiskLevel, alert.Institution)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

func severityHeader(level models.RiskLevel) string {
	switch level {
	case models.RiskHigh:
		return "CRITICAL ALERT"
	case models.RiskMedium:
		return "WARNING"
	default:
		return "NOTICE"
	}
}

func (s *Service) sendToSlack(alert *models.Alert) error {
	message := s.buildSlackMessage(alert)

	resp, err := s.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(message).
		Post(s.config.SlackWebhookURL)

	if err != nil {
		return fmt.Errorf("failed to send Slack message: %w", err)
	}

	if resp.StatusCode() != 200 {
		return fmt.Errorf("Slack webhook returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	return nil
}

func (s *Service) buildSlackMessage(alert *models.Alert) *slackMessage {
	detected := alert.Timestamp.UTC().Format("2006-01-02 15:04:05 UTC")

	blocks := []slackBlock{
		{
			Type: "header",
			Text: &slackText{
				Type:  "plain_text",
				Text:  fmt.Sprintf("%s: %s", severityHeader(alert.RiskLevel), alert.Institution),
				Emoji: true,
			},
		},
		{
			Type: "section",
			Fields: []slackText{
				{Type: "mrkdwn", Text: fmt.Sprintf("*Institution:*\n%s", alert.Institution)},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Risk Level:*\n%s", alert.RiskLevel)},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Detected At:*\n%s", detected)},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Tweets Analyzed:*\n%d", alert.Details.TweetCount)},
			},
		},
		{Type: "divider"},
		{
			Type: "section",
			Text: &slackText{
				Type: "mrkdwn",
				Text: fmt.Sprintf("*Summary:*\n%s", truncate(alert.Message, 2900)),
			},
		},
	}

	if len(alert.Details.KeyFindings) > 0 {
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{
				Type: "mrkdwn",
				Text: fmt.Sprintf("*Key Findings:*\n• %s", strings.Join(alert.Details.KeyFindings, "\n• ")),
			},
		})
	}

	return &slackMessage{
		Text:   fmt.Sprintf("%s risk alert for %s", alert.RiskLevel, alert.Institution),
		Blocks: blocks,
	}
}

func (s *Service) sendEmail(alert *models.Alert) error {
	subject := fmt.Sprintf("[%s] %s risk alert: %s", severityHeader(alert.RiskLevel), alert.RiskLevel, alert.Institution)

	m := gomail.NewMessage()
	m.SetHeader("From", s.config.SMTPUsername)
	m.SetHeader("To", s.config.NotificationEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", s.buildEmailText(alert))

	d := gomail.NewDialer(s.config.SMTPHost, s.config.SMTPPort, s.config.SMTPUsername, s.config.SMTPPassword)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

func (s *Service) buildEmailText(alert *models.Alert) string {
	var text strings.Builder

	text.WriteString(fmt.Sprintf("%s: %s\n", severityHeader(alert.RiskLevel), alert.Institution))
	text.WriteString(fmt.Sprintf("Detected: %s\n\n", alert.Timestamp.UTC().Format("2006-01-02 15:04:05 UTC")))
	text.WriteString(fmt.Sprintf("%s\n", alert.Message))

	if alert.Details.TweetCount > 0 {
		text.WriteString(fmt.Sprintf("\nTweets analyzed: %d | Viral score: %.0f\n", alert.Details.TweetCount, alert.Details.ViralScore))
	}

	if len(alert.Details.KeyFindings) > 0 {
		text.WriteString("\nKey findings:\n")
		for _, finding := range alert.Details.KeyFindings {
			text.WriteString(fmt.Sprintf("  - %s\n", finding))
		}
	}

	text.WriteString("\n---\nThis alert was generated automatically by Financial Sentinel.\n")

	return text.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
