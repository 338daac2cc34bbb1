package generator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/Aagam-Bothara/astranum-sub001/internal/domain"
	"github.com/Aagam-Bothara/astranum-sub001/internal/ports/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLLM struct {
	reply    string
	err      error
	requests []service.CompletionRequest
}

func (r *recordingLLM) Complete(_ context.Context, req service.CompletionRequest) (string, error) {
	r.requests = append(r.requests, req)
	return r.reply, r.err
}

func (r *recordingLLM) Provider() string { return "recording" }

func testSnapshot() *domain.ChartSnapshot {
	return &domain.ChartSnapshot{
		Version: 1,
		Numerology: &domain.NumerologyData{
			LifePath: 7,
			Destiny:  5,
			SoulUrge: 3,
			BirthDay: 3,
			NameUsed: "Asha Verma",
		},
		Astrology: &domain.AstrologyData{
			SunSign:    "Taurus",
			SunDegree:  12.3,
			MoonSign:   "Cancer",
			MoonDegree: 4.2,
			Planets: map[string]domain.PlanetPosition{
				"venus":  {Sign: "Gemini", Degree: 20.5},
				"saturn": {Sign: "Capricorn", Degree: 24.1},
			},
		},
	}
}

func newGenerator(llm service.ILLMService) *Service {
	return New(Config{}, llm, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func constraints(snapshot *domain.ChartSnapshot) domain.GenerationConstraints {
	return domain.GenerationConstraints{
		MaxChars:   400,
		Vocabulary: domain.ExtractDataPoints(snapshot).WithoutTimeSensitive(),
		Mode:       domain.GuidanceModeBoth,
		Language:   domain.LanguageEnglish,
		Style:      domain.ResponseStyleBalanced,
	}
}

func TestTokenBudget(t *testing.T) {
	assert.Equal(t, 2000, TokenBudget(0))
	assert.Equal(t, 130, TokenBudget(400))
	assert.Equal(t, 55, TokenBudget(100))
	assert.Equal(t, 1500, TokenBudget(10000))
}

func TestGenerate_PromptCarriesVerifiedData(t *testing.T) {
	llm := &recordingLLM{reply: `{"empathy_line":"I hear you.","reasons":["Life Path 7 seeks depth."],"direction":"Reflect first.","caution":null,"data_points_used":["life_path"],"full_response":"I hear you. Your Life Path number is 7."}`}
	snapshot := testSnapshot()

	candidate, err := newGenerator(llm).Generate(context.Background(), domain.GuidanceRequest{Question: " Should I change jobs? "}, snapshot, constraints(snapshot))
	require.NoError(t, err)
	require.Len(t, llm.requests, 1)

	req := llm.requests[0]
	assert.Contains(t, req.System, "VERIFIED CHART DATA")
	assert.Contains(t, req.System, "- life_path: Life Path number = 7")
	assert.Contains(t, req.System, "- moon_sign: Moon sign = Cancer")
	assert.Contains(t, req.System, "birth time is unknown")
	assert.Contains(t, req.System, "under 400 characters")
	assert.Equal(t, "User's question: Should I change jobs?", req.Prompt)
	assert.Equal(t, 130, req.MaxTokens)
	assert.InDelta(t, 0.7, req.Temperature, 0.001)
	assert.True(t, req.JSON)

	assert.Equal(t, []string{"life_path"}, candidate.DataPointsUsed)
	assert.Equal(t, "I hear you. Your Life Path number is 7.", candidate.FullResponse)
	assert.Nil(t, candidate.Caution)
}

func TestGenerate_StrictModeNarrowsVocabulary(t *testing.T) {
	llm := &recordingLLM{reply: "Your Life Path number is 7."}
	snapshot := testSnapshot()
	c := constraints(snapshot)
	c.Strict = true
	c.PreviousIssues = []string{"contradiction: Life Path number stated as 3, chart says 7"}

	_, err := newGenerator(llm).Generate(context.Background(), domain.GuidanceRequest{Question: "Will my relationship last?"}, snapshot, c)
	require.NoError(t, err)

	req := llm.requests[0]
	assert.Contains(t, req.System, "STRICT MODE")
	assert.Contains(t, req.System, "- contradiction: Life Path number stated as 3, chart says 7")
	assert.Contains(t, req.System, "venus_sign")
	assert.NotContains(t, req.System, "saturn_sign", "unrelated planets are dropped in strict mode")
	assert.Contains(t, req.Prompt, "avoiding the issues")
	assert.InDelta(t, 0.2, req.Temperature, 0.001)
}

func TestGenerate_Unavailable(t *testing.T) {
	snapshot := testSnapshot()

	_, err := newGenerator(&recordingLLM{err: errors.New("503 from provider")}).
		Generate(context.Background(), domain.GuidanceRequest{Question: "hi there friend"}, snapshot, constraints(snapshot))
	assert.ErrorIs(t, err, domain.ErrGenerationUnavailable)

	_, err = newGenerator(&recordingLLM{reply: "   "}).
		Generate(context.Background(), domain.GuidanceRequest{Question: "career?"}, snapshot, constraints(snapshot))
	assert.ErrorIs(t, err, domain.ErrGenerationUnavailable)
}

func TestParseCandidate(t *testing.T) {
	t.Run("fenced json", func(t *testing.T) {
		c := ParseCandidate("Here you go:\n```json\n{\"empathy_line\":\"Hi.\",\"reasons\":\"One reason.\",\"direction\":\"Go slow.\",\"data_points_used\":[\"moonSign\"]}\n```")
		assert.Equal(t, "Hi.", c.EmpathyLine)
		assert.Equal(t, []string{"One reason."}, c.Reasons)
		assert.Equal(t, []string{"moonSign"}, c.DataPointsUsed)
		assert.Equal(t, "Hi. One reason. Go slow.", c.FullResponse)
	})

	t.Run("plain text", func(t *testing.T) {
		c := ParseCandidate("  Your Moon in Cancer asks for rest.  ")
		assert.Equal(t, "Your Moon in Cancer asks for rest.", c.FullResponse)
		assert.Empty(t, c.DataPointsUsed)
	})

	t.Run("broken json falls back to text", func(t *testing.T) {
		c := ParseCandidate(`{"full_response": "unterminated`)
		assert.Equal(t, `{"full_response": "unterminated`, c.FullResponse)
	})
}
