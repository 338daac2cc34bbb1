package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"

	"github.com/Aagam-Bothara/astranum-sub001/internal/domain"
)

type stubHandler struct {
	err  error
	keys []string
}

func (s *stubHandler) HandleMessage(_ context.Context, key string, _ []byte) error {
	s.keys = append(s.keys, key)
	return s.err
}

func TestProcess(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantMark bool
	}{
		{name: "handled", err: nil, wantMark: true},
		{name: "invalid message skipped", err: domain.WrapBusinessError(errors.New("bad payload")), wantMark: true},
		{name: "transient failure kept", err: errors.New("db is down"), wantMark: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubHandler{err: tt.err}
			h := &consumerGroupHandler{
				handler: stub,
				log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
				topic:   "subscription_events",
			}

			msg := &sarama.ConsumerMessage{Topic: h.topic, Key: []byte("user-1"), Value: []byte("{}")}
			assert.Equal(t, tt.wantMark, h.process(context.Background(), msg))
			assert.Equal(t, []string{"user-1"}, stub.keys)
		})
	}
}
