package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/honeynil/CoinLedgerService/internal/models"
	"github.com/segmentio/kafka-go"
	"github.com/tidwall/gjson"
)

const maxReadBackoff = 30 * time.Second

// ActionEvent is a business event from the user-actions topic.
type ActionEvent struct {
	EventID    string
	ActionType string
	UserID     int64
}

// ActionEvaluator feeds action events into the rule engine.
type ActionEvaluator interface {
	Evaluate(ctx context.Context, actionType string, userID int64, eventID string) (*models.EvaluationResult, error)
}

type Consumer struct {
	reader    *kafka.Reader
	evaluator ActionEvaluator
}

func NewConsumer(brokers []string, topic, groupID string, evaluator ActionEvaluator) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			Topic:    topic,
			GroupID:  groupID,
			MinBytes: 10e3,
			MaxBytes: 10e6,
		}),
		evaluator: evaluator,
	}
}

// Consume reads until ctx is cancelled. Read failures back off exponentially.
func (c *Consumer) Consume(ctx context.Context) error {
	backoff := time.Second
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			slog.Error("failed to read Kafka message", "topic", c.reader.Config().Topic, "error", err, "backoff", backoff)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, maxReadBackoff)
			continue
		}
		backoff = time.Second

		slog.Debug("Kafka message received", "topic", msg.Topic, "key", string(msg.Key), "offset", msg.Offset)
		if err := HandleActionMessage(ctx, c.evaluator, msg.Value); err != nil {
			slog.Error("failed to handle action event", "topic", msg.Topic, "offset", msg.Offset, "error", err)
		}
	}
}

// HandleActionMessage parses one action event and evaluates it. Duplicate events are reported
// by the evaluator and returned as errors; callers log and move on.
func HandleActionMessage(ctx context.Context, evaluator ActionEvaluator, value []byte) error {
	event, err := ParseActionEvent(value)
	if err != nil {
		return err
	}
	result, err := evaluator.Evaluate(ctx, event.ActionType, event.UserID, event.EventID)
	if err != nil {
		return fmt.Errorf("evaluate %s for user %d: %w", event.ActionType, event.UserID, err)
	}
	slog.Info("action event processed", "event_id", event.EventID, "action_type", event.ActionType, "user_id", event.UserID, "applied", result.Applied)
	return nil
}

// ParseActionEvent accepts user_id as a JSON number or a numeric string.
func ParseActionEvent(value []byte) (ActionEvent, error) {
	if !gjson.ValidBytes(value) {
		return ActionEvent{}, fmt.Errorf("malformed action event")
	}
	fields := gjson.GetManyBytes(value, "event_id", "action_type", "user_id")
	event := ActionEvent{
		EventID:    fields[0].String(),
		ActionType: strings.TrimSpace(fields[1].String()),
		UserID:     fields[2].Int(),
	}
	if event.ActionType == "" {
		return ActionEvent{}, fmt.Errorf("action event without action_type")
	}
	if event.UserID <= 0 {
		return ActionEvent{}, fmt.Errorf("action event without a valid user_id")
	}
	return event, nil
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
