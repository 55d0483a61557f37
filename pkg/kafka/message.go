package kafka

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Message is a transport message with metadata. For event fan-out the
// key is the ledger entity key, so all events for one (slot, participant)
// land on the same partition in order.
type Message struct {
	Key       string
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
}

// Header keys shared by producer and consumers.
const (
	HeaderEventID       = "event-id"
	HeaderEventType     = "event-type"
	HeaderSource        = "source"
	HeaderTimestamp     = "timestamp"
	HeaderRetryCount    = "retry-count"
	HeaderOriginalTopic = "original-topic"
)

// NewMessage builds a message carrying a JSON-encoded payload.
func NewMessage(key string, value any) (Message, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return Message{}, err
	}
	now := time.Now()
	return Message{
		Key:   key,
		Value: data,
		Headers: map[string]string{
			HeaderEventID:   uuid.New().String(),
			HeaderTimestamp: now.Format(time.RFC3339),
		},
		Timestamp: now,
	}, nil
}

func (m Message) WithHeader(key, value string) Message {
	if m.Headers == nil {
		m.Headers = make(map[string]string)
	}
	m.Headers[key] = value
	return m
}

// MessageHandler processes one message. Returning nil commits the
// offset; returning an error triggers retry / DLQ handling.
type MessageHandler func(ctx context.Context, msg Message) error

func (m *Message) DecodeValue(v any) error {
	return json.Unmarshal(m.Value, v)
}

func (m *Message) GetHeader(key string) (string, bool) {
	value, exists := m.Headers[key]
	return value, exists
}

func (m *Message) GetEventID() string {
	return m.Headers[HeaderEventID]
}

func (m *Message) GetEventType() string {
	return m.Headers[HeaderEventType]
}

func (m *Message) GetRetryCount() int {
	if countStr, exists := m.Headers[HeaderRetryCount]; exists {
		if count, err := strconv.Atoi(countStr); err == nil {
			return count
		}
	}
	return 0
}

func (m *Message) IncrementRetryCount() {
	m.Headers[HeaderRetryCount] = strconv.Itoa(m.GetRetryCount() + 1)
}
