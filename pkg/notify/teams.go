package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2/clientcredentials"
)

// Activity is a Bot Framework message activity.
type Activity struct {
	Type        string       `json:"type"`
	Text        string       `json:"text,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Attachment wraps an adaptive card payload.
type Attachment struct {
	ContentType string      `json:"contentType"`
	Content     interface{} `json:"content"`
}

// AdaptiveCardContentType is the attachment content type Teams expects.
const AdaptiveCardContentType = "application/vnd.microsoft.card.adaptive"

// TeamsClientConfig holds the bot credentials.
type TeamsClientConfig struct {
	AppID      string
	AppSecret  string
	TokenURL   string
	TokenScope string
	Timeout    time.Duration
}

// TeamsClient posts proactive messages into existing Teams
// conversations through the Bot Framework connector API. Tokens are
// acquired and refreshed via the client credentials grant.
type TeamsClient struct {
	httpClient *http.Client
	logger     *zap.Logger
}

// NewTeamsClient constructs the client.
func NewTeamsClient(cfg TeamsClientConfig, logger *zap.Logger) *TeamsClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	credentials := clientcredentials.Config{
		ClientID:     cfg.AppID,
		ClientSecret: cfg.AppSecret,
		TokenURL:     cfg.TokenURL,
		Scopes:       []string{cfg.TokenScope},
	}
	client := credentials.Client(context.Background())
	client.Timeout = cfg.Timeout

	return &TeamsClient{httpClient: client, logger: logger}
}

// SendActivity posts the activity into the conversation hosted at the
// given service URL.
func (c *TeamsClient) SendActivity(ctx context.Context, serviceURL, conversationID string, activity Activity) error {
	payload, err := json.Marshal(activity)
	if err != nil {
		return fmt.Errorf("marshal activity: %w", err)
	}

	url := fmt.Sprintf("%s/v3/conversations/%s/activities", strings.TrimRight(serviceURL, "/"), conversationID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build activity request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post activity: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("post activity: connector returned %d: %s", resp.StatusCode, string(body))
	}

	c.logger.Debug("activity delivered", zap.String("conversation_id", conversationID))
	return nil
}
