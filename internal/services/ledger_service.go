package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/honeynil/CoinLedgerService/internal/infrastructure/kafka"
	"github.com/honeynil/CoinLedgerService/internal/infrastructure/observability"
	"github.com/honeynil/CoinLedgerService/internal/models"
	"github.com/honeynil/CoinLedgerService/internal/repository"
	"github.com/honeynil/CoinLedgerService/pkg/idgen"
	"go.opentelemetry.io/otel/attribute"
)

const (
	publishRetries = 3
	publishTimeout = 5 * time.Second
)

type LedgerService struct {
	txRepo   repository.TransactionRepository
	producer kafka.KafkaProducer
	topic    string
}

// NewLedgerService builds the ledger facade. producer may be nil, in which case no ledger
// events are published.
func NewLedgerService(txRepo repository.TransactionRepository, producer kafka.KafkaProducer, topic string) *LedgerService {
	return &LedgerService{txRepo: txRepo, producer: producer, topic: topic}
}

// ledgerEvent is keyed by user id on the wire so one user's events stay on one partition and
// consumers see their balances in order.
type ledgerEvent struct {
	EventID         int64                  `json:"event_id"`
	EventType       string                 `json:"event_type"`
	TransactionID   int64                  `json:"transaction_id"`
	UserID          int64                  `json:"user_id"`
	Amount          int64                  `json:"amount"`
	TransactionType models.TransactionType `json:"transaction_type"`
	ActionType      string                 `json:"action_type,omitempty"`
	Balance         int64                  `json:"balance"`
	CreatedAt       string                 `json:"created_at"`
}

// RecordTransaction appends tx to its owner's ledger and returns it with the balance observed
// right after the write.
func (s *LedgerService) RecordTransaction(ctx context.Context, tx *models.CoinTransaction) (*models.RecordResult, error) {
	ctx, span := tracer.Start(ctx, "RecordTransaction")
	defer span.End()

	balance, err := s.txRepo.Record(ctx, tx)
	if err != nil {
		recordError(span, err, "record failed")
		observability.WithContext(ctx).Error("failed to record transaction", "method", "RecordTransaction", "error", err)
		return nil, err
	}
	span.SetAttributes(attribute.Int64("transaction_id", tx.ID), attribute.Int64("balance", balance))

	amount := tx.Amount
	if amount < 0 {
		amount = -amount
	}
	observability.CoinsRecorded.WithLabelValues(string(tx.TransactionType)).Add(float64(amount))

	s.publish(*tx, balance)

	observability.WithContext(ctx).Info("transaction recorded",
		"method", "RecordTransaction",
		"transaction_id", tx.ID,
		"user_id", tx.UserID,
		"amount", tx.Amount,
		"balance", balance)
	return &models.RecordResult{Transaction: *tx, Balance: balance}, nil
}

func (s *LedgerService) GetBalance(ctx context.Context, userID int64) (int64, error) {
	ctx, span := tracer.Start(ctx, "GetBalance")
	defer span.End()

	balance, err := s.txRepo.GetBalance(ctx, userID)
	if err != nil {
		recordError(span, err, "balance failed")
		slog.Error("failed to get balance", "method", "GetBalance", "user_id", userID, "error", err)
		return 0, err
	}
	return balance, nil
}

func (s *LedgerService) ListTransactions(ctx context.Context, filter models.TransactionFilter) ([]models.CoinTransaction, error) {
	ctx, span := tracer.Start(ctx, "ListTransactions")
	defer span.End()

	txs, err := s.txRepo.List(ctx, filter)
	if err != nil {
		recordError(span, err, "list failed")
		slog.Error("failed to list transactions", "method", "ListTransactions", "error", err)
		return nil, err
	}
	slog.Debug("transactions listed", "method", "ListTransactions", "count", len(txs))
	return txs, nil
}

// publish sends the ledger event in the background. The ledger write has already committed,
// so delivery failures are logged and dropped.
func (s *LedgerService) publish(tx models.CoinTransaction, balance int64) {
	if s.producer == nil {
		return
	}
	eventID := idgen.GenID()
	payload, err := json.Marshal(ledgerEvent{
		EventID:         eventID,
		EventType:       "coin_transaction_recorded",
		TransactionID:   tx.ID,
		UserID:          tx.UserID,
		Amount:          tx.Amount,
		TransactionType: tx.TransactionType,
		ActionType:      tx.ActionType,
		Balance:         balance,
		CreatedAt:       tx.CreatedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		slog.Error("failed to marshal ledger event", "transaction_id", tx.ID, "error", err)
		return
	}

	key := tx.UserID
	go func() {
		for i := 0; i < publishRetries; i++ {
			ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
			err := s.producer.Send(ctx, s.topic, key, payload)
			cancel()
			if err == nil {
				return
			}
			time.Sleep(time.Duration(i+1) * 100 * time.Millisecond)
		}
		slog.Error("failed to publish ledger event after retries", "transaction_id", tx.ID, "event_id", eventID, "key", key)
	}()
}
