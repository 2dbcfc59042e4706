package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/sentinel-labs/financial-sentinel/internal/models"
)

const xSearchURL = "https://api.x.com/2/tweets/search/recent"

// riskKeywords narrow the search to tweets signalling financial distress.
// Covers banks, crypto platforms, and trading apps.
var riskKeywords = []string{
	"outage", "down", "not working", "fraud", "scam", "hack", "breach",
	"bank run", "frozen", "can't withdraw", "insolvency", "halted",
}

// XSource fetches recent tweets about an institution from the X API v2.
type XSource struct {
	bearerToken string
	client      *resty.Client
}

type xSearchResponse struct {
	Data     []xTweet `json:"data"`
	Includes struct {
		Users []xUser `json:"users"`
	} `json:"includes"`
	Meta struct {
		ResultCount int `json:"result_count"`
	} `json:"meta"`
}

type xTweet struct {
	ID            string `json:"id"`
	Text          string `json:"text"`
	AuthorID      string `json:"author_id"`
	CreatedAt     string `json:"created_at"`
	PublicMetrics struct {
		RetweetCount int `json:"retweet_count"`
		LikeCount    int `json:"like_count"`
		ReplyCount   int `json:"reply_count"`
	} `json:"public_metrics"`
}

type xUser struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Name          string `json:"name"`
	Verified      bool   `json:"verified"`
	PublicMetrics struct {
		FollowersCount int `json:"followers_count"`
	} `json:"public_metrics"`
}

// NewXSource creates an X API source
func NewXSource(bearerToken string) *XSource {
	return &XSource{
		bearerToken: bearerToken,
		client: resty.New().
			SetTimeout(30*time.Second).
			SetHeader("User-Agent", "Financial-Sentinel/1.0"),
	}
}

func (x *XSource) Name() string {
	return "x-api"
}

func (x *XSource) IsEnabled() bool {
	return x.bearerToken != ""
}

// FetchTweets searches recent tweets mentioning the institution alongside
// risk keywords, excluding retweets.
func (x *XSource) FetchTweets(ctx context.Context, institution string, window time.Duration) ([]models.TweetEvent, error) {
	if !x.IsEnabled() {
		logrus.Debug("X source disabled - missing bearer token")
		return nil, nil
	}

	query := x.buildSearchQuery(institution)
	startTime := time.Now().UTC().Add(-window).Format("2006-01-02T15:04:05Z")

	searchURL := fmt.Sprintf("%s?query=%s&start_time=%s&max_results=100&tweet.fields=created_at,author_id,public_metrics&expansions=author_id&user.fields=username,verified,public_metrics",
		xSearchURL, url.QueryEscape(query), startTime)

	resp, err := x.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+x.bearerToken).
		Get(searchURL)

	if err != nil {
		return nil, fmt.Errorf("x api request failed: %w", err)
	}

	// Fail fast on rate limiting so the rest of the cycle can proceed.
	if resp.StatusCode() == 429 {
		reset := resp.Header().Get("x-rate-limit-reset")
		logrus.Warnf("X API rate limited for %q (reset %s) - skipping", institution, reset)
		return []models.TweetEvent{}, nil
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("x api returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	var searchResp xSearchResponse
	if err := json.Unmarshal(resp.Body(), &searchResp); err != nil {
		return nil, fmt.Errorf("failed to parse X API response: %w", err)
	}

	users := make(map[string]xUser, len(searchResp.Includes.Users))
	for _, u := range searchResp.Includes.Users {
		users[u.ID] = u
	}

	var tweets []models.TweetEvent
	for _, tweet := range searchResp.Data {
		createdAt, err := time.Parse(time.RFC3339, tweet.CreatedAt)
		if err != nil {
			logrus.Errorf("Failed to parse tweet timestamp: %v", err)
			createdAt = time.Now().UTC()
		}

		author := users[tweet.AuthorID]
		tweets = append(tweets, models.TweetEvent{
			EventBase: models.EventBase{
				ID:        fmt.Sprintf("tweet_%s", tweet.ID),
				Timestamp: createdAt,
			},
			InstitutionName: institution,
			AuthorHandle:    author.Username,
			DisplayName:     author.Name,
			Verified:        author.Verified,
			FollowerCount:   author.PublicMetrics.FollowersCount,
			TweetID:         tweet.ID,
			Text:            tweet.Text,
			Engagement: models.Engagement{
				Replies:  tweet.PublicMetrics.ReplyCount,
				Retweets: tweet.PublicMetrics.RetweetCount,
				Likes:    tweet.PublicMetrics.LikeCount,
			},
			URL: fmt.Sprintf("https://x.com/i/status/%s", tweet.ID),
		})
	}

	logrus.Infof("Found %d tweets for %q", len(tweets), institution)
	return tweets, nil
}

func (x *XSource) buildSearchQuery(institution string) string {
	keywords := make([]string, len(riskKeywords))
	for i, kw := range riskKeywords {
		if strings.Contains(kw, " ") {
			keywords[i] = fmt.Sprintf("%q", kw)
		} else {
			keywords[i] = kw
		}
	}
	return fmt.Sprintf(`%q (%s) -is:retweet lang:en`, institution, strings.Join(keywords, " OR "))
}
