package domain

import (
	"time"

	"github.com/google/uuid"
)

type MessageSender string

const (
	MessageSenderUser      MessageSender = "user"
	MessageSenderAssistant MessageSender = "assistant"
)

type Sentiment string

const (
	SentimentNeutral    Sentiment = "neutral"
	SentimentSarcastic  Sentiment = "sarcastic"
	SentimentSupportive Sentiment = "supportive"
	SentimentAlarmed    Sentiment = "alarmed"
	SentimentHappy      Sentiment = "happy"
)

type ChatMessage struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	Sender        MessageSender
	Body          string
	Sentiment     *Sentiment
	LedgerEntryID *uuid.UUID
	CreatedAt     time.Time
}
