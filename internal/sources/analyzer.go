package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/sentinel-labs/financial-sentinel/internal/models"
)

const (
	grokBaseURL   = "https://api.x.ai/v1"
	maxPromptSize = 50
)

const analyzerSystemPrompt = `You are a financial risk analyst monitoring financial institutions including banks, crypto exchanges, trading apps, robo-advisors, and payment platforms.

Analyze the provided tweets and assess the risk level.

RISK LEVELS:
- HIGH: Platform-wide outages, withdrawal freezes, confirmed hack/breach, regulatory action, bank run signals, insolvency concerns
- MEDIUM: Localized outages, elevated complaints, unconfirmed rumors spreading, isolated access issues, delayed transactions
- LOW: Normal operations, routine complaints, minor bugs, no systemic indicators

IMPORTANT:
- Differentiate between routine complaints (LOW) and systemic issues (HIGH)
- Look for VOLUME and VELOCITY of complaints
- High-engagement tweets from verified accounts carry more weight
- Ignore promotional content and unrelated mentions

Respond in JSON format:
{
    "risk_level": "HIGH" | "MEDIUM" | "LOW",
    "risk_type": "short label for the dominant risk",
    "urgency": 0-10,
    "summary": "Brief overall assessment",
    "key_findings": ["Finding 1", "Finding 2"],
    "viral_score": 0-100,
    "confidence": 0.0-1.0,
    "trend_velocity": "signed percent change in complaint volume"
}`

// GrokAnalyzer submits tweet batches to an OpenAI-compatible Grok endpoint
// and parses the structured risk assessment.
type GrokAnalyzer struct {
	apiKey  string
	model   string
	baseURL string
	client  *resty.Client
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	MaxTokens      int           `json:"max_tokens"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type assessment struct {
	RiskLevel     string   `json:"risk_level"`
	RiskType      string   `json:"risk_type"`
	Urgency       float64  `json:"urgency"`
	Summary       string   `json:"summary"`
	KeyFindings   []string `json:"key_findings"`
	ViralScore    float64  `json:"viral_score"`
	Confidence    float64  `json:"confidence"`
	TrendVelocity float64  `json:"trend_velocity"`
}

// NewGrokAnalyzer creates a Grok analyzer client
func NewGrokAnalyzer(apiKey, model string) *GrokAnalyzer {
	if model == "" {
		model = "grok-4-1-fast"
	}
	return &GrokAnalyzer{
		apiKey:  apiKey,
		model:   model,
		baseURL: grokBaseURL,
		client:  resty.New().SetTimeout(60 * time.Second),
	}
}

func (g *GrokAnalyzer) Name() string {
	return "grok"
}

func (g *GrokAnalyzer) IsEnabled() bool {
	return g.apiKey != ""
}

// Analyze assesses the risk level for one institution from its recent tweets.
// An empty batch short-circuits to LOW without calling the API.
func (g *GrokAnalyzer) Analyze(ctx context.Context, institution string, tweets []models.TweetEvent) (models.AnalysisEvent, error) {
	base := models.EventBase{
		ID:        fmt.Sprintf("analysis_%s", uuid.NewString()),
		Timestamp: time.Now().UTC(),
	}

	if len(tweets) == 0 {
		return models.AnalysisEvent{
			EventBase:       base,
			InstitutionName: institution,
			RiskLevel:       models.RiskLow,
			Summary:         fmt.Sprintf("No recent tweets found mentioning %s.", institution),
			Confidence:      1,
		}, nil
	}

	if !g.IsEnabled() {
		return models.AnalysisEvent{}, fmt.Errorf("grok analyzer disabled - missing API key")
	}

	req := chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: analyzerSystemPrompt},
			{Role: "user", Content: g.buildUserPrompt(institution, tweets)},
		},
		Temperature: 0.3,
		MaxTokens:   1000,
	}
	req.ResponseFormat.Type = "json_object"

	resp, err := g.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+g.apiKey).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post(g.baseURL + "/chat/completions")

	if err != nil {
		return models.AnalysisEvent{}, fmt.Errorf("grok request failed: %w", err)
	}

	if resp.StatusCode() != 200 {
		return models.AnalysisEvent{}, fmt.Errorf("grok returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	var chat chatResponse
	if err := json.Unmarshal(resp.Body(), &chat); err != nil {
		return models.AnalysisEvent{}, fmt.Errorf("failed to parse grok response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return models.AnalysisEvent{}, fmt.Errorf("grok response contained no choices")
	}

	var result assessment
	if err := json.Unmarshal([]byte(chat.Choices[0].Message.Content), &result); err != nil {
		return models.AnalysisEvent{}, fmt.Errorf("failed to parse grok assessment: %w", err)
	}

	level, err := models.ParseRiskLevel(result.RiskLevel)
	if err != nil {
		return models.AnalysisEvent{}, fmt.Errorf("grok assessment: %w", err)
	}

	logrus.Infof("Analysis for %q: %s (%d tweets, confidence %.2f)", institution, level, len(tweets), result.Confidence)

	return models.AnalysisEvent{
		EventBase:       base,
		InstitutionName: institution,
		RiskLevel:       level,
		RiskType:        result.RiskType,
		Urgency:         result.Urgency,
		Summary:         result.Summary,
		KeyFindings:     result.KeyFindings,
		TweetCount:      len(tweets),
		ViralScore:      result.ViralScore,
		Confidence:      result.Confidence,
		TrendVelocity:   result.TrendVelocity,
	}, nil
}

// buildUserPrompt formats the highest-engagement tweets for the model.
func (g *GrokAnalyzer) buildUserPrompt(institution string, tweets []models.TweetEvent) string {
	sorted := make([]models.TweetEvent, len(tweets))
	copy(sorted, tweets)
	sort.SliceStable(sorted, func(i, j int) bool {
		return engagementWeight(sorted[i]) > engagementWeight(sorted[j])
	})
	if len(sorted) > maxPromptSize {
		sorted = sorted[:maxPromptSize]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Analyze these tweets about %s for financial risk indicators:\n\n", institution)
	for i, tweet := range sorted {
		verified := ""
		if tweet.Verified {
			verified = " [VERIFIED]"
		}
		fmt.Fprintf(&b, "%d. @%s%s (%d followers) [%d likes, %d RTs]:\n   %q\n\n",
			i+1, tweet.AuthorHandle, verified, tweet.FollowerCount,
			tweet.Engagement.Likes, tweet.Engagement.Retweets, truncate(tweet.Text, 280))
	}
	fmt.Fprintf(&b, "Total tweets analyzed: %d\n", len(tweets))
	return b.String()
}

func engagementWeight(t models.TweetEvent) int {
	return t.Engagement.Likes + t.Engagement.Retweets*2
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
