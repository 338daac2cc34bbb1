package alerter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Aagam-Bothara/astranum-sub001/internal/ports/service"
	"golang.org/x/time/rate"
)

// Sender транспорт алертов
type Sender interface {
	SendAlert(ctx context.Context, message string) error
}

// Service реализует IAlerterService: подписывает алерт окружением и
// ограничивает частоту, чтобы серия сбоев не заспамила чат
type Service struct {
	sender  Sender
	prefix  string
	limiter *rate.Limiter
	log     *slog.Logger
}

var _ service.IAlerterService = (*Service)(nil)

// New не больше burst алертов подряд, дальше один в interval
func New(sender Sender, env string, interval time.Duration, burst int, log *slog.Logger) *Service {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if burst <= 0 {
		burst = 5
	}
	return &Service{
		sender:  sender,
		prefix:  fmt.Sprintf("[astranum/%s] ", env),
		limiter: rate.NewLimiter(rate.Every(interval), burst),
		log:     log,
	}
}

// SendAlert отправляет алерт; сверх лимита алерт только пишется в лог
func (s *Service) SendAlert(ctx context.Context, message string) error {
	if s.sender == nil {
		return fmt.Errorf("alerter client is not initialized")
	}

	if !s.limiter.Allow() {
		s.log.Warn("alert dropped by rate limit", "message", message)
		return nil
	}
	return s.sender.SendAlert(ctx, s.prefix+message)
}
