package kafka

import "context"

// MessageHandler обработчик сообщений топика; domain.BusinessError означает, что сообщение не нужно повторять
type MessageHandler interface {
	HandleMessage(ctx context.Context, key string, value []byte) error
}
