package insights

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/graindesk/grainbroker/internal/domain"
)

const (
	defaultBaseURL = "https://api.openai.com"
	defaultModel   = "gpt-4.1-mini"
	temperature    = 0.2
)

const systemPrompt = "You are a data analyst for a grain brokerage. Analyze recent order records and summarize operational insights."

const userPromptFormat = `Analyze these %d latest orders (JSON below). Find trends, anomalies, and opportunities.
Focus on fill rate, delivery cost, and customer performance.
Return ONLY valid JSON matching this structure (no markdown, no commentary):

{
  "summary": string,
  "keyFindings": string[],
  "totalRequestedTons": number,
  "totalSuppliedTons": number,
  "avgFillRate": number,
  "medianDeliveryCost": number,
  "avgDeliveryCost": number
}

DATA:
%s`

// OpenAIAnalyzer implements Analyzer over the chat completions API.
type OpenAIAnalyzer struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewOpenAIAnalyzer creates an analyzer, or nil when no API key is
// configured so callers fall back to baseline metrics.
func NewOpenAIAnalyzer(apiKey, model string) *OpenAIAnalyzer {
	if apiKey == "" {
		return nil
	}
	if model == "" {
		model = defaultModel
	}
	return &OpenAIAnalyzer{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

// compactOrder is the condensed per-order shape sent to the model.
type compactOrder struct {
	ID    int64           `json:"id"`
	Date  string          `json:"date"`
	PO    string          `json:"po"`
	Cust  string          `json:"cust"`
	Loc   *string         `json:"custLoc"`
	Req   decimal.Decimal `json:"req"`
	Sup   decimal.Decimal `json:"sup"`
	Fill  decimal.Decimal `json:"fill"`
	By    *string         `json:"by"`
	ByLoc *string         `json:"byLoc"`
	Cost  decimal.Decimal `json:"cost"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Analyze sends the snapshot to the model and decodes the structured JSON it
// returns.
func (a *OpenAIAnalyzer) Analyze(ctx context.Context, orders []domain.Order) (domain.OrderInsights, error) {
	compact := make([]compactOrder, len(orders))
	for i, order := range orders {
		compact[i] = compactOrder{
			ID:    order.ID,
			Date:  order.OrderDate.Format("2006-01-02"),
			PO:    order.PurchaseOrderID.String(),
			Cust:  order.CustomerID.String(),
			Loc:   order.CustomerLocation,
			Req:   order.RequestedTons,
			Sup:   order.SuppliedTons,
			Fill:  order.FillRate(),
			ByLoc: order.FulfilledByLocation,
			Cost:  order.DeliveryCost,
		}
		if order.FulfilledByID != nil {
			id := order.FulfilledByID.String()
			compact[i].By = &id
		}
	}

	dataJSON, err := json.Marshal(compact)
	if err != nil {
		return domain.OrderInsights{}, fmt.Errorf("failed to encode orders: %w", err)
	}

	payload, err := json.Marshal(chatRequest{
		Model:       a.model,
		Temperature: temperature,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: fmt.Sprintf(userPromptFormat, len(orders), dataJSON)},
		},
	})
	if err != nil {
		return domain.OrderInsights{}, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return domain.OrderInsights{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.apiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := a.client.Do(req)
	if err != nil {
		return domain.OrderInsights{}, fmt.Errorf("analysis request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return domain.OrderInsights{}, fmt.Errorf("analysis request returned status %d", res.StatusCode)
	}

	var decoded chatResponse
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		return domain.OrderInsights{}, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(decoded.Choices) == 0 || decoded.Choices[0].Message.Content == "" {
		return domain.OrderInsights{}, fmt.Errorf("empty response from model")
	}

	var result domain.OrderInsights
	if err := json.Unmarshal([]byte(decoded.Choices[0].Message.Content), &result); err != nil {
		return domain.OrderInsights{}, fmt.Errorf("model returned malformed insights: %w", err)
	}
	return result, nil
}
