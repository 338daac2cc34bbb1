package numerology

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestLifePath(t *testing.T) {
	cases := []struct {
		birth time.Time
		want  int
	}{
		{date(2000, 1, 1), 4},
		{date(1900, 9, 10), 11},
		{date(2009, 8, 3), 22},
		{date(1990, 11, 29), 5},
		{date(1984, 4, 4), 3},
		{date(2000, 11, 1), 5},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, LifePath(tc.birth), tc.birth.Format(time.DateOnly))
	}
}

func TestReduce(t *testing.T) {
	assert.Equal(t, 3, Reduce(3, true))
	assert.Equal(t, 11, Reduce(11, true))
	assert.Equal(t, 2, Reduce(11, false))
	assert.Equal(t, 33, Reduce(33, true))
	assert.Equal(t, 1, Reduce(1990, true))
	assert.Equal(t, 22, Reduce(1984, true))
	assert.Equal(t, 4, Reduce(1984, false))
}

func TestNameNumbers(t *testing.T) {
	assert.Equal(t, 8, Destiny("John Doe"))
	assert.Equal(t, 8, SoulUrge("John Doe"))
	assert.Equal(t, 9, Personality("John Doe"))

	assert.Equal(t, 3, Destiny("AB"))
	assert.Equal(t, 6, Destiny("ABC"))
	assert.Equal(t, 6, SoulUrge("AEIOU"))
	assert.Equal(t, 0, Personality("AEIOU"))
}

func TestYAsVowel(t *testing.T) {
	// Y в конце слова гласная
	assert.Equal(t, 8, SoulUrge("Mary"))
	assert.Equal(t, 4, Personality("Mary"))

	// Y перед гласной согласная: в гласных только o
	assert.Equal(t, 6, SoulUrge("Yo"))

	// Y между согласными гласная: l-y-n
	assert.Equal(t, 7, SoulUrge("Lynn"))
}

func TestPersonalYear(t *testing.T) {
	assert.Equal(t, 5, PersonalYear(date(1990, 11, 29), date(2026, 10, 16)))
	assert.Equal(t, 6, PersonalYear(date(1990, 11, 29), date(2027, 1, 1)))
}

func TestKarmicDebt(t *testing.T) {
	assert.Equal(t, []int{14}, KarmicDebt(date(2000, 11, 1), "Mary"))
	assert.Equal(t, []int{16}, KarmicDebt(date(2000, 1, 16), "Mary"))
	assert.Empty(t, KarmicDebt(date(1990, 11, 29), "John Doe"))
}

func TestCompute(t *testing.T) {
	r := Compute(" John Doe ", date(1990, 11, 29), date(2026, 10, 16))

	assert.Equal(t, 5, r.LifePath)
	assert.Equal(t, 8, r.Destiny)
	assert.Equal(t, 8, r.SoulUrge)
	assert.Equal(t, 9, r.Personality)
	assert.Equal(t, 29, r.BirthDay)
	assert.Equal(t, 11, r.BirthdayNumber)
	assert.Equal(t, 4, r.Maturity)
	assert.Equal(t, 5, r.PersonalYear)
	assert.Equal(t, "John Doe", r.NameUsed)
}

func TestCompute_Deterministic(t *testing.T) {
	a := Compute("Priya Sharma", date(1995, 7, 13), date(2026, 1, 1))
	b := Compute("Priya Sharma", date(1995, 7, 13), date(2026, 1, 1))
	assert.Equal(t, a, b)
	assert.Contains(t, a.KarmicDebt, 13)
}
