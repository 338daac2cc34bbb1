package kafka

import (
	"context"

	"github.com/Aagam-Bothara/astranum-sub001/internal/domain"
)

type IKafkaProducer interface {
	// PublishGuidanceEvent событие о завершённом запросе, ключ сообщения user_id
	PublishGuidanceEvent(ctx context.Context, event *domain.GuidanceEvent) error
	Send(ctx context.Context, key string, value []byte) error
	Close() error
}
