package llm

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/Aagam-Bothara/astranum-sub001/internal/ports/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const systemPrompt = `You are a careful guide.

VERIFIED CHART DATA (the only facts you may cite):
- life_path: Life Path number = 7
- sun_sign: Sun sign = Taurus
- moon_sign: Moon sign = Cancer

LENGTH: "full_response" must stay under 60 characters. Finish every sentence.
`

func TestOfflineClient_CitesVerifiedData(t *testing.T) {
	raw, err := OfflineClient{}.Complete(context.Background(), service.CompletionRequest{System: systemPrompt, Prompt: "User's question: career?"})
	require.NoError(t, err)

	var answer offlineAnswer
	require.NoError(t, json.Unmarshal([]byte(raw), &answer))
	assert.Equal(t, []string{"life_path", "sun_sign"}, answer.DataPointsUsed)
	assert.Equal(t, "Your Life Path number is 7.", answer.Reasons[0])
	assert.LessOrEqual(t, len([]rune(answer.FullResponse)), 60)
}

func TestOfflineClient_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := OfflineClient{}.Complete(ctx, service.CompletionRequest{System: systemPrompt})
	assert.ErrorIs(t, err, context.Canceled)
}
