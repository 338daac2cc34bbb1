package validator

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/Aagam-Bothara/astranum-sub001/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Life Path 7, Солнце в Тельце, Луна в Раке, время рождения неизвестно
func testSnapshot() *domain.ChartSnapshot {
	return &domain.ChartSnapshot{
		Version: 1,
		Numerology: &domain.NumerologyData{
			LifePath:    7,
			Destiny:     5,
			SoulUrge:    3,
			Personality: 2,
			BirthDay:    3,
			NameUsed:    "Asha Verma",
		},
		Astrology: &domain.AstrologyData{
			SunSign:    "Taurus",
			SunDegree:  12.3,
			MoonSign:   "Cancer",
			MoonDegree: 4.2,
			Planets: map[string]domain.PlanetPosition{
				"mars": {Sign: "Aries", Degree: 3.1},
			},
		},
	}
}

func groundFor(snapshot *domain.ChartSnapshot, tier domain.Tier) Ground {
	vocabulary := domain.ExtractDataPoints(snapshot).ForTier(domain.GetTierConfig(tier).Features)
	if !snapshot.HasBirthTime() {
		vocabulary = vocabulary.WithoutTimeSensitive()
	}
	return Ground{
		Snapshot:         snapshot,
		Vocabulary:       vocabulary,
		MaxResponseChars: domain.GetTierConfig(tier).MaxResponseChars,
	}
}

func answer(text string, used ...string) *domain.CandidateAnswer {
	return &domain.CandidateAnswer{
		EmpathyLine:    "I hear you.",
		Direction:      "Take one step at a time.",
		DataPointsUsed: used,
		FullResponse:   text,
	}
}

func TestValidate_GroundedAnswerPasses(t *testing.T) {
	v := New(Config{}, testLogger())

	res := v.Validate(answer(
		"Your Life Path number is 7 and your Moon in Cancer at 4 degrees points to reflection. Mars in Aries adds drive.",
		"lifePath", "moon_sign", "moonDegree", "mars_sign",
	), groundFor(testSnapshot(), domain.TierPro))

	assert.True(t, res.Passed, res.Issues)
	assert.Empty(t, res.Issues)
}

func TestValidate_LifePathContradiction(t *testing.T) {
	v := New(Config{}, testLogger())

	res := v.Validate(answer("With life path 3 you are drawn to creative work.", "life_path"), groundFor(testSnapshot(), domain.TierFree))

	assert.False(t, res.Passed)
	assert.Contains(t, res.Issues, "contradiction: Life Path number stated as 3, chart says 7")
}

func TestValidate_HallucinatedDataPoint(t *testing.T) {
	v := New(Config{}, testLogger())

	res := v.Validate(answer("Stay steady this week.", "venus_sign", "life_path"), groundFor(testSnapshot(), domain.TierPro))

	assert.False(t, res.Passed)
	assert.Equal(t, []string{"hallucinated data point: venus_sign"}, res.Issues)
}

func TestValidate_CitedValues(t *testing.T) {
	v := New(Config{}, testLogger())
	ground := groundFor(testSnapshot(), domain.TierPro)

	res := v.Validate(answer("Stay patient with yourself.", "lifePath=7", "moonSign=Cancer", "moonDegree=4.5°", "sun_sign: taurus"), ground)
	assert.True(t, res.Passed, res.Issues)

	cases := []struct {
		name  string
		cited string
		issue string
	}{
		{"number", "lifePath=3", "contradiction: Life Path number stated as 3, chart says 7"},
		{"number in words", "lifePath=seven", "contradiction: Life Path number stated as seven, chart says 7"},
		{"sign", "moonSign=Leo", "contradiction: Moon sign stated as Leo, chart says Cancer"},
		{"degree", "moon_degree: 9", "contradiction: Moon degree stated as 9, chart says 4.20°"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := v.Validate(answer("Stay patient with yourself.", tc.cited), ground)
			assert.False(t, res.Passed)
			assert.Equal(t, []string{tc.issue}, res.Issues)
		})
	}
}

func TestValidate_StructuredSections(t *testing.T) {
	v := New(Config{}, testLogger())
	ground := groundFor(testSnapshot(), domain.TierPro)

	candidate := answer("Stay patient with yourself.", "life_path")
	candidate.Reasons = []string{"Your life path number is 3, and your Moon in Leo makes you bold."}

	res := v.Validate(candidate, ground)
	assert.False(t, res.Passed)
	assert.Contains(t, res.Issues, "contradiction: Life Path number stated as 3, chart says 7")
	assert.Contains(t, res.Issues, "contradiction: Moon sign stated as Leo, chart says Cancer")

	caution := "Your Virgo rising warns against haste."
	candidate = answer("Stay patient with yourself.", "life_path")
	candidate.Caution = &caution

	res = v.Validate(candidate, ground)
	assert.False(t, res.Passed)
	assert.Contains(t, res.Issues, "mentions virgo rising without a known birth time")
}

func TestValidate_TierFilteredPointIsHallucinated(t *testing.T) {
	v := New(Config{}, testLogger())

	// марс недоступен бесплатному тарифу
	res := v.Validate(answer("Mars in Aries gives you courage.", "mars_sign"), groundFor(testSnapshot(), domain.TierFree))

	assert.False(t, res.Passed)
	assert.Contains(t, res.Issues, "hallucinated data point: mars_sign")
	assert.Contains(t, res.Issues, fabricated("Mars in Aries"))
}

func TestValidate_NoAscendantWithoutBirthTime(t *testing.T) {
	v := New(Config{}, testLogger())

	res := v.Validate(answer("Your Virgo rising makes you careful, and the 7th house shows partnerships.", "ascendant", "house_7_sign"),
		groundFor(testSnapshot(), domain.TierMax))

	assert.False(t, res.Passed)
	assert.Contains(t, res.Issues, "data point ascendant requires a known birth time")
	assert.Contains(t, res.Issues, "data point house_7_sign requires a known birth time")
	assert.Contains(t, res.Issues, "mentions virgo rising without a known birth time")
	assert.Contains(t, res.Issues, "mentions 7th house without a known birth time")
}

func TestValidate_AscendantWithBirthTime(t *testing.T) {
	v := New(Config{}, testLogger())
	snapshot := testSnapshot()
	asc, ascDegree := "Virgo", 12.5
	snapshot.Astrology.HasBirthTime = true
	snapshot.Astrology.Ascendant = &asc
	snapshot.Astrology.AscendantDegree = &ascDegree

	ground := groundFor(snapshot, domain.TierPro)

	res := v.Validate(answer("Your Virgo rising makes you careful.", "rising"), ground)
	assert.True(t, res.Passed, res.Issues)

	res = v.Validate(answer("Your rising sign is Libra.", "ascendant"), ground)
	assert.Contains(t, res.Issues, "contradiction: Ascendant stated as Libra, chart says Virgo")
}

func TestValidate_SnapshotInconsistency(t *testing.T) {
	v := New(Config{}, testLogger())
	snapshot := testSnapshot()
	asc := "Virgo"
	snapshot.Astrology.Ascendant = &asc

	res := v.Validate(answer("Stay patient."), Ground{Snapshot: snapshot, Vocabulary: domain.ExtractDataPoints(snapshot)})

	assert.False(t, res.Passed)
	assert.Contains(t, res.Issues, "chart data carries ascendant or houses without a birth time")
}

func TestValidate_SignClaims(t *testing.T) {
	v := New(Config{}, testLogger())
	ground := groundFor(testSnapshot(), domain.TierPro)

	cases := []struct {
		name  string
		text  string
		issue string
	}{
		{"sign before body", "As a Leo moon you crave attention.", "contradiction: Moon sign stated as Leo, chart says Cancer"},
		{"sign phrase", "Your sun sign is Gemini.", "contradiction: Sun sign stated as Gemini, chart says Taurus"},
		{"pair with trailing body", "Sun in Taurus Moon in Leo.", "contradiction: Moon sign stated as Leo, chart says Cancer"},
		{"unknown body", "Saturn in Pisces slows things down.", fabricated("Saturn in Pisces")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := v.Validate(answer(tc.text), ground)
			assert.False(t, res.Passed)
			assert.Contains(t, res.Issues, tc.issue)
		})
	}

	res := v.Validate(answer("Sun in Taurus Moon in Cancer."), ground)
	assert.True(t, res.Passed, res.Issues)
}

func TestValidate_TransitClaims(t *testing.T) {
	v := New(Config{}, testLogger())
	snapshot := testSnapshot()

	// без транзитов в словаре фразы о текущем положении не проверяются
	res := v.Validate(answer("Saturn is currently in Aries."), groundFor(snapshot, domain.TierPro))
	assert.True(t, res.Passed, res.Issues)

	withTransit := snapshot.WithTransit(&domain.TransitData{
		Date:      "2026-10-16",
		Positions: map[string]domain.PlanetPosition{"saturn": {Sign: "Pisces", Degree: 27.4}},
	})
	ground := groundFor(withTransit, domain.TierPro)

	res = v.Validate(answer("Saturn is currently in Aries.", "transit_saturn_sign"), ground)
	assert.Contains(t, res.Issues, "contradiction: Transiting Saturn sign stated as Aries, chart says Pisces")

	res = v.Validate(answer("Transiting Saturn in Pisces asks for patience.", "transit_saturn_sign"), ground)
	assert.True(t, res.Passed, res.Issues)
}

func TestValidate_DegreeClaims(t *testing.T) {
	v := New(Config{}, testLogger())
	ground := groundFor(testSnapshot(), domain.TierPro)

	res := v.Validate(answer("Your Sun at 12.8° is strong."), ground)
	assert.True(t, res.Passed, res.Issues)

	res = v.Validate(answer("Your Sun at 14° is strong."), ground)
	assert.Contains(t, res.Issues, "contradiction: Sun degree stated as 14°, chart says 12.30°")
}

func TestValidate_FabricatedNumber(t *testing.T) {
	v := New(Config{}, testLogger())

	res := v.Validate(answer("Your destiny number is 5."), groundFor(testSnapshot(), domain.TierFree))

	assert.False(t, res.Passed)
	assert.Contains(t, res.Issues, fabricated("Destiny number 5"))
}

func TestValidate_Length(t *testing.T) {
	v := New(Config{}, testLogger())
	ground := groundFor(testSnapshot(), domain.TierFree)

	res := v.Validate(answer(strings.Repeat("ॐ", 401)), ground)
	assert.Equal(t, []string{"response is 401 characters, limit is 400"}, res.Issues)

	res = v.Validate(answer(strings.Repeat("ॐ", 400)), ground)
	assert.True(t, res.Passed)
}

func TestValidate_SafetyRulesArePolicy(t *testing.T) {
	text := "You will definitely get the job, there is no doubt."

	res := New(Config{}, testLogger()).Validate(answer(text), groundFor(testSnapshot(), domain.TierPro))
	assert.True(t, res.Passed)

	res = New(Config{SafetyRules: true}, testLogger()).Validate(answer(text), groundFor(testSnapshot(), domain.TierPro))
	require.False(t, res.Passed)
	assert.Contains(t, res.Issues[0], "unsafe content (prediction certainty)")
}

func TestValidate_AmbiguousTextNotFlagged(t *testing.T) {
	v := New(Config{}, testLogger())

	res := v.Validate(answer(
		"Rising costs can feel heavy. Give yourself 3 weeks and keep your path open; the moon always returns.",
	), groundFor(testSnapshot(), domain.TierFree))

	assert.True(t, res.Passed, res.Issues)
}
