package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Aagam-Bothara/astranum-sub001/internal/domain"
	kafkaPorts "github.com/Aagam-Bothara/astranum-sub001/internal/ports/kafka"
	"github.com/Aagam-Bothara/astranum-sub001/internal/ports/usecase"
)

// SubscriptionEventHandler применяет события биллинга к локальной копии подписки
type SubscriptionEventHandler struct {
	Subscriptions usecase.ISubscriptionUseCase
	Log           *slog.Logger
}

func NewSubscriptionEventHandler(subscriptions usecase.ISubscriptionUseCase, log *slog.Logger) kafkaPorts.MessageHandler {
	return &SubscriptionEventHandler{
		Subscriptions: subscriptions,
		Log:           log,
	}
}

func (h *SubscriptionEventHandler) HandleMessage(ctx context.Context, key string, value []byte) error {
	var event domain.SubscriptionEvent
	if err := json.Unmarshal(value, &event); err != nil {
		return domain.WrapBusinessError(fmt.Errorf("failed to unmarshal subscription event: %w", err))
	}

	h.Log.Debug("processing subscription event",
		"event_id", event.EventID,
		"user_id", event.UserID,
		"tier", event.Tier,
		"status", event.Status,
		"key", key,
	)

	if err := h.Subscriptions.ApplyEvent(ctx, &event); err != nil {
		return fmt.Errorf("failed to apply subscription event %s: %w", event.EventID, err)
	}
	return nil
}
