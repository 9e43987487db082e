package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/callscopehq/callscope/pkg/config"
)

// GroqClient is a minimal client for Groq API calls used for call analysis
type GroqClient struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// NewGroqClient creates a Groq client using values from the provided config.
// Pass a nil config to fall back to environment variables.
func NewGroqClient(cfg *config.GroqConfig) *GroqClient {
	var apiKey string
	if cfg != nil {
		apiKey = cfg.APIKey
	}
	if apiKey == "" {
		apiKey = os.Getenv("GROQ_API_KEY")
	}

	var base string
	if cfg != nil && cfg.BaseURL != "" {
		base = cfg.BaseURL
	} else {
		base = os.Getenv("GROQ_API_URL")
		if base == "" {
			base = "https://api.groq.com"
		}
	}

	model := "llama-3.3-70b-versatile"
	if cfg != nil && cfg.Model != "" {
		model = cfg.Model
	}

	timeout := 90 * time.Second
	if cfg != nil && cfg.Timeout > 0 {
		timeout = cfg.Timeout
	}

	return &GroqClient{
		apiKey:  apiKey,
		baseURL: base,
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

// ChatRequest is the shape for chat completion requests
type ChatRequest struct {
	Model       string      `json:"model,omitempty"`
	Messages    interface{} `json:"messages,omitempty"`
	Temperature float64     `json:"temperature,omitempty"`
	MaxTokens   int         `json:"max_tokens,omitempty"`
}

// ChatResponse is a minimal response shape
type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

const analysisPrompt = `You are a sales-call analyst. Analyze the following sales call transcript and respond with a single JSON object, no prose, with exactly these fields:
- "title": short call title
- "date": call date if mentioned, else ""
- "duration": call duration as "mm:ss" or "hh:mm:ss"
- "participants": ordered list of participant labels
- "summary": free-text summary of the call
- "overall_sentiment": number 0-1
- "key_insights": list of strings
- "recommendations": list of strings
- "talk_ratio": sales rep share of total words, 0-100
- "questions_per_minute": questions asked per minute (optional)
- "total_questions": total questions asked
- "topic_coherence": number 0-1
- "objections": list of {"id", "text", "timestamp", "response", "effectiveness" (0-1), "category" (PRICE|TIMING|TRUST_RISK|COMPETITION|STAKEHOLDERS|TECHNICAL|IMPLEMENTATION|VALUE|OTHERS), "success" (bool)}
- "sentiment_timeline": list of {"timestamp", "score" (0-1)}
- "talk_stats": list of {"name", "role", "word_count", "percentage" (0-100)}
- "topic_shifts": optional list of {"timestamp", "from_topic", "to_topic"}
- "competitive_intel": optional list of {"competitor", "context"}

Transcript:

%s`

// GenerateCallAnalysis sends the transcript to Groq and returns the raw
// assistant content. One call per artifact; the caller decides what failure
// means, so no retry happens here.
func (g *GroqClient) GenerateCallAnalysis(ctx context.Context, transcript string) (string, error) {
	prompt := fmt.Sprintf(analysisPrompt, transcript)

	reqBody := ChatRequest{
		Model:       g.model,
		Messages:    []map[string]string{{"role": "user", "content": prompt}},
		Temperature: 0.2,
		MaxTokens:   8000,
	}

	b, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	endpoint := g.baseURL + "/openai/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("groq returned status %d: %s", resp.StatusCode, string(body))
	}

	var cr ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", err
	}
	if len(cr.Choices) == 0 {
		return "", fmt.Errorf("empty response from groq")
	}
	return cr.Choices[0].Message.Content, nil
}
