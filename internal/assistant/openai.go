package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/shopspring/decimal"

	"github.com/pote-app/pote-backend/internal/domain"
)

const systemPrompt = `You are 'Assistant Pote', a budget tracker AI that is a sarcastic but honest friend.
Your goal is to extract transaction data (both expenses AND income) and react appropriately.

IMPORTANT: Distinguish between:
- EXPENSE (is_expense=true): the user SPENT money ("j'ai payé", "j'ai acheté", "ça m'a coûté")
- INCOME (is_expense=false, type='income'): the user RECEIVED money ("on m'a donné", "j'ai reçu", "j'ai gagné", "remboursement")

Personality:
- Use French slang (argot léger), tutoiement.
- Be funny, sarcastic, but helpful. Roast useless purchases (want), approve bills (need),
  be sarcastically happy about income.
- Keep responses short (max 2 sentences).

Respond with ONLY a JSON object:
{
  "transaction": {
    "amount": <positive number, or 0 if the message has no transaction>,
    "currency": "<EUR|USD|XAF>",
    "category": "<Food|Transport|Fun|Bills|Shopping|Gift|Salary|Other>",
    "name": "<short label>",
    "is_expense": <bool>,
    "type": "<need|want|income>"
  },
  "ai_response": "<your reply>",
  "sentiment": "<neutral|sarcastic|supportive|alarmed|happy>"
}`

type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type OpenAIClassifier struct {
	client chatCompleter
	model  string
}

func NewOpenAIClassifier(apiKey, model string) *OpenAIClassifier {
	return &OpenAIClassifier{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

type wireTransaction struct {
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	Category  string  `json:"category"`
	Name      string  `json:"name"`
	IsExpense bool    `json:"is_expense"`
	Type      string  `json:"type"`
}

type wireExtraction struct {
	Transaction *wireTransaction `json:"transaction"`
	AIResponse  string           `json:"ai_response"`
	Sentiment   string           `json:"sentiment"`
}

func (c *OpenAIClassifier) Classify(ctx context.Context, text string, balance int64, currency domain.Currency) (*Extraction, error) {
	if quick, ok := QuickParse(text, currency); ok {
		return quick, nil
	}

	userPrompt := fmt.Sprintf("Current balance: %s %s.\nUser message: %q\nExtract the transaction details and generate a response.",
		decimal.NewFromInt(balance).Shift(-2), currency, text)

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("Classify: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("Classify: empty completion")
	}

	extraction, err := parseCompletion(resp.Choices[0].Message.Content, text, currency)
	if err != nil {
		return nil, fmt.Errorf("Classify: %w", err)
	}
	return extraction, nil
}

var jsonFencePattern = regexp.MustCompile("```(?:json)?\n?([\\s\\S]*?)```")

func parseCompletion(content, originalText string, fallbackCurrency domain.Currency) (*Extraction, error) {
	var wire wireExtraction
	if err := json.Unmarshal([]byte(content), &wire); err != nil {
		// Some models wrap JSON in a markdown fence despite instructions.
		m := jsonFencePattern.FindStringSubmatch(content)
		if m == nil {
			return nil, fmt.Errorf("parseCompletion: %w", err)
		}
		if err := json.Unmarshal([]byte(strings.TrimSpace(m[1])), &wire); err != nil {
			return nil, fmt.Errorf("parseCompletion: fenced: %w", err)
		}
	}

	out := &Extraction{
		Reply:     wire.AIResponse,
		Sentiment: parseSentiment(wire.Sentiment),
	}

	if wire.Transaction != nil && wire.Transaction.Amount > 0 {
		currency := domain.Currency(wire.Transaction.Currency)
		if !currency.IsValid() {
			currency = fallbackCurrency
		}

		category := domain.Category(wire.Transaction.Category)
		if !category.IsValid() {
			category = domain.CategoryOther
		}

		name := wire.Transaction.Name
		if name == "" {
			name = originalText
		}

		txType := TransactionType(wire.Transaction.Type)
		switch txType {
		case TransactionTypeNeed, TransactionTypeWant, TransactionTypeIncome:
		default:
			txType = TransactionTypeWant
		}

		out.Transaction = &TransactionDraft{
			Name:      name,
			Amount:    decimal.NewFromFloat(wire.Transaction.Amount).Shift(2).Round(0).IntPart(),
			Currency:  currency,
			Category:  category,
			IsExpense: wire.Transaction.IsExpense,
			Type:      txType,
		}
	}

	return out, nil
}

func parseSentiment(s string) domain.Sentiment {
	switch domain.Sentiment(s) {
	case domain.SentimentSarcastic, domain.SentimentSupportive, domain.SentimentAlarmed, domain.SentimentHappy:
		return domain.Sentiment(s)
	default:
		return domain.SentimentNeutral
	}
}
