package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func floatPtr(v float64) *float64 { return &v }

func testSnapshot(withBirthTime bool) *ChartSnapshot {
	astro := &AstrologyData{
		SunSign:    "Taurus",
		SunDegree:  14.2,
		MoonSign:   "Cancer",
		MoonDegree: 3.5,
		Planets: map[string]PlanetPosition{
			"mars":   {Sign: "Leo", Degree: 22.1},
			"saturn": {Sign: "Aquarius", Degree: 8.75, IsRetrograde: true},
		},
		Nakshatra:    strPtr("Pushya"),
		HasBirthTime: withBirthTime,
	}
	if withBirthTime {
		astro.Ascendant = strPtr("Virgo")
		astro.AscendantDegree = floatPtr(11)
		astro.Houses = map[int]HousePosition{1: {Sign: "Virgo"}, 7: {Sign: "Pisces"}}
	}

	return &ChartSnapshot{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		Version:   1,
		InputHash: "hash",
		Numerology: &NumerologyData{
			LifePath:    7,
			Destiny:     8,
			SoulUrge:    8,
			Personality: 9,
			BirthDay:    16,
			NameUsed:    "John Doe",
			Maturity:    intPtr(6),
			KarmicDebt:  []int{16},
		},
		Astrology: astro,
		CreatedAt: time.Now(),
	}
}

func TestExtractDataPoints_Numerology(t *testing.T) {
	set := ExtractDataPoints(testSnapshot(false))

	lp, ok := set.Get(DPLifePath)
	require.True(t, ok)
	v, ok := lp.Int()
	require.True(t, ok)
	assert.Equal(t, 7, v)
	assert.Equal(t, CategoryNumerology, lp.Category)

	debt, ok := set.Get(DPKarmicDebt)
	require.True(t, ok)
	assert.Equal(t, "16", debt.Value)

	assert.False(t, set.Has(DPPersonalYear), "absent optional field must not appear")
}

func TestExtractDataPoints_Astrology(t *testing.T) {
	set := ExtractDataPoints(testSnapshot(true))

	moon, ok := set.Get("moon_sign")
	require.True(t, ok)
	assert.Equal(t, "Cancer", moon.Value)
	assert.Equal(t, "moon", moon.Body)

	deg, ok := set.Get("sun_degree")
	require.True(t, ok)
	f, ok := deg.Float()
	require.True(t, ok)
	assert.InDelta(t, 14.2, f, 0.001)

	asc, ok := set.Get(DPAscendant)
	require.True(t, ok)
	assert.True(t, asc.TimeSensitive)

	house, ok := set.Get("house_7_sign")
	require.True(t, ok)
	assert.Equal(t, "Pisces", house.Value)
	assert.True(t, house.TimeSensitive)
}

func TestExtractDataPoints_NoBirthTime(t *testing.T) {
	set := ExtractDataPoints(testSnapshot(false))

	assert.False(t, set.Has(DPAscendant))
	for _, name := range set.Names() {
		assert.False(t, IsTimeSensitiveName(name), name)
	}
}

func TestExtractDataPoints_Transit(t *testing.T) {
	snap := testSnapshot(true).WithTransit(&TransitData{
		Date:      "2026-10-16",
		Positions: map[string]PlanetPosition{"saturn": {Sign: "Pisces", Degree: 2}},
	})

	set := ExtractDataPoints(snap)
	p, ok := set.FindBody("saturn", KindSign, CategoryTransit)
	require.True(t, ok)
	assert.Equal(t, "Pisces", p.Value)

	natal, ok := set.FindBody("saturn", KindSign, CategoryAstrology)
	require.True(t, ok)
	assert.Equal(t, "Aquarius", natal.Value)
}

func TestExtractDataPoints_Nil(t *testing.T) {
	assert.Equal(t, 0, ExtractDataPoints(nil).Len())
}

func TestDataPointSet_ForTier(t *testing.T) {
	set := ExtractDataPoints(testSnapshot(true))

	free := set.ForTier(GetTierConfig(TierFree).Features)
	assert.True(t, free.Has(DPLifePath))
	assert.False(t, free.Has(DPDestiny))
	assert.True(t, free.Has("moon_sign"))
	assert.False(t, free.Has("mars_sign"))
	assert.False(t, free.Has(DPAscendant))
	assert.False(t, free.Has(DPNakshatra))

	starter := set.ForTier(GetTierConfig(TierStarter).Features)
	assert.True(t, starter.Has(DPDestiny))
	assert.False(t, starter.Has(DPSoulUrge))
	assert.True(t, starter.Has("mars_sign"))
	assert.False(t, starter.Has("saturn_sign"))
	assert.True(t, starter.Has(DPAscendant))
	assert.False(t, starter.Has("house_7_sign"))

	pro := set.ForTier(GetTierConfig(TierPro).Features)
	assert.Equal(t, set.Len(), pro.Len())
}

func TestDataPointSet_ForMode(t *testing.T) {
	set := ExtractDataPoints(testSnapshot(true))

	num := set.ForMode(GuidanceModeNumerology)
	assert.True(t, num.HasCategory(CategoryNumerology))
	assert.False(t, num.HasCategory(CategoryAstrology))

	astro := set.ForMode(GuidanceModeAstrology)
	assert.False(t, astro.HasCategory(CategoryNumerology))
	assert.True(t, astro.Has("moon_sign"))

	assert.Equal(t, set.Len(), set.ForMode(GuidanceModeBoth).Len())
}

func TestDataPointSet_KeepsOrder(t *testing.T) {
	set := NewDataPointSet(
		DataPoint{Name: "b", Value: "1"},
		DataPoint{Name: "a", Value: "2"},
		DataPoint{Name: "b", Value: "3"},
	)

	assert.Equal(t, []string{"b", "a"}, set.Names())
	p, _ := set.Get("b")
	assert.Equal(t, "3", p.Value)
}

func TestNormalizeDataPointName(t *testing.T) {
	cases := map[string]string{
		"life_path":           DPLifePath,
		"lifePath":            DPLifePath,
		"Life Path":           DPLifePath,
		"LIFE_PATH":           DPLifePath,
		"moonSign=Cancer":     "moon_sign",
		"moon_sign: Leo":      "moon_sign",
		"rising":              DPAscendant,
		"Lagna":               DPAscendant,
		"destiny":             DPDestiny,
		"expressionNumber":    DPDestiny,
		"7th house":           "house_7_sign",
		"house_7":             "house_7_sign",
		"mars":                "mars_sign",
		"transit-saturn-sign": "transit_saturn_sign",
	}

	for in, want := range cases {
		assert.Equal(t, want, NormalizeDataPointName(in), in)
	}
}

func TestCitedValue(t *testing.T) {
	assert.Equal(t, "7", CitedValue("lifePath=7"))
	assert.Equal(t, "Leo", CitedValue("moon_sign: Leo"))
	assert.Equal(t, "4.2°", CitedValue("moonDegree = 4.2°"))
	assert.Empty(t, CitedValue("life_path"))
	assert.Empty(t, CitedValue("moonSign="))
}

func TestIsTimeSensitiveName(t *testing.T) {
	assert.True(t, IsTimeSensitiveName(DPAscendant))
	assert.True(t, IsTimeSensitiveName("house_10_sign"))
	assert.False(t, IsTimeSensitiveName("moon_sign"))
}
