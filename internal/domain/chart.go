package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Знаки зодиака в каноническом написании
var ZodiacSigns = []string{
	"Aries", "Taurus", "Gemini", "Cancer", "Leo", "Virgo",
	"Libra", "Scorpio", "Sagittarius", "Capricorn", "Aquarius", "Pisces",
}

// CanonicalSign приводит название знака к каноническому виду, ok=false для неизвестного
func CanonicalSign(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, sign := range ZodiacSigns {
		if strings.EqualFold(sign, s) {
			return sign, true
		}
	}
	return "", false
}

// Накшатры, по 13°20' каждая
var Nakshatras = []string{
	"Ashwini", "Bharani", "Krittika", "Rohini", "Mrigashira", "Ardra",
	"Punarvasu", "Pushya", "Ashlesha", "Magha", "Purva Phalguni", "Uttara Phalguni",
	"Hasta", "Chitra", "Swati", "Vishakha", "Anuradha", "Jyeshtha",
	"Mula", "Purva Ashadha", "Uttara Ashadha", "Shravana", "Dhanishta", "Shatabhisha",
	"Purva Bhadrapada", "Uttara Bhadrapada", "Revati",
}

// NakshatraOf накшатра и пада (1-4) по абсолютной сидерической долготе Луны
func NakshatraOf(longitude float64) (string, int) {
	longitude = math.Mod(longitude, 360)
	if longitude < 0 {
		longitude += 360
	}
	span := 360.0 / 27
	index := int(longitude/span) % 27
	pada := int(math.Mod(longitude, span)/(span/4)) + 1
	return Nakshatras[index], min(pada, 4)
}

// Планеты в порядке, в котором они попадают в словарь DataPoint
var Planets = []string{
	"sun", "moon", "mercury", "venus", "mars", "jupiter", "saturn", "rahu", "ketu",
	"uranus", "neptune", "pluto",
}

type PlanetPosition struct {
	Sign         string  `json:"sign"`
	Degree       float64 `json:"degree"` // 0-30 внутри знака
	IsRetrograde bool    `json:"is_retrograde"`
	Nakshatra    *string `json:"nakshatra,omitempty"`
	Pada         *int    `json:"pada,omitempty"`
	House        *int    `json:"house,omitempty"`
}

type HousePosition struct {
	Sign   string  `json:"sign"`
	Degree float64 `json:"degree"`
}

// NumerologyData нумерологические числа (JSONB)
type NumerologyData struct {
	LifePath       int    `json:"life_path"`
	Destiny        int    `json:"destiny_number"`
	SoulUrge       int    `json:"soul_urge"`
	Personality    int    `json:"personality"`
	BirthDay       int    `json:"birth_day"`
	NameUsed       string `json:"name_used"`
	Maturity       *int   `json:"maturity_number,omitempty"`
	PersonalYear   *int   `json:"personal_year,omitempty"`
	BirthdayNumber *int   `json:"birthday_number,omitempty"`
	KarmicDebt     []int  `json:"karmic_debt,omitempty"`
}

func (n *NumerologyData) Scan(value interface{}) error {
	return scanJSON(value, n)
}

func (n NumerologyData) Value() (driver.Value, error) {
	return json.Marshal(n)
}

// AstrologyData натальные позиции (JSONB)
type AstrologyData struct {
	SunSign         string                    `json:"sun_sign"`
	SunDegree       float64                   `json:"sun_degree"`
	MoonSign        string                    `json:"moon_sign"`
	MoonDegree      float64                   `json:"moon_degree"`
	Ascendant       *string                   `json:"ascendant,omitempty"`
	AscendantDegree *float64                  `json:"ascendant_degree,omitempty"`
	Planets         map[string]PlanetPosition `json:"planets,omitempty"`
	Nakshatra       *string                   `json:"nakshatra,omitempty"`
	Houses          map[int]HousePosition     `json:"houses,omitempty"`
	HasBirthTime    bool                      `json:"has_birth_time"`
}

func (a *AstrologyData) Scan(value interface{}) error {
	return scanJSON(value, a)
}

func (a AstrologyData) Value() (driver.Value, error) {
	return json.Marshal(a)
}

// HasTimeSensitiveFields есть ли в данных асцендент или дома
func (a *AstrologyData) HasTimeSensitiveFields() bool {
	return a.Ascendant != nil || a.AscendantDegree != nil || len(a.Houses) > 0
}

// StripTimeSensitive убирает асцендент и дома, которые без времени рождения не имеют смысла
func (a *AstrologyData) StripTimeSensitive() {
	a.Ascendant = nil
	a.AscendantDegree = nil
	a.Houses = nil
	for name, pos := range a.Planets {
		pos.House = nil
		a.Planets[name] = pos
	}
}

// TransitData позиции планет на конкретную дату, не версионируется вместе с картой
type TransitData struct {
	Date       string                    `json:"date"` // YYYY-MM-DD
	Positions  map[string]PlanetPosition `json:"positions"`
	ComputedAt time.Time                 `json:"computed_at"`
}

// ChartSnapshot неизменяемая версия карты пользователя
type ChartSnapshot struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	UserID     uuid.UUID       `json:"user_id" db:"user_id"`
	Version    int             `json:"version" db:"version"`
	InputHash  string          `json:"input_hash" db:"input_hash"`
	Numerology *NumerologyData `json:"numerology_data,omitempty" db:"numerology_data"`
	Astrology  *AstrologyData  `json:"astrology_data,omitempty" db:"astrology_data"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
	Transit    *TransitData    `json:"transit_data,omitempty" db:"-"`
}

// HasBirthTime карта посчитана с известным временем рождения
func (s *ChartSnapshot) HasBirthTime() bool {
	return s.Astrology != nil && s.Astrology.HasBirthTime
}

// WithTransit возвращает копию снапшота с транзитами на сегодня; натальные поля общие
func (s *ChartSnapshot) WithTransit(t *TransitData) *ChartSnapshot {
	cp := *s
	cp.Transit = t
	return &cp
}

func scanJSON(value interface{}, dest interface{}) error {
	if value == nil {
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into %T", value, dest)
	}

	if len(bytes) == 0 {
		return nil
	}

	return json.Unmarshal(bytes, dest)
}

// ChartVersionInfo версия карты в истории пользователя
type ChartVersionInfo struct {
	Version      int       `json:"version"`
	HasBirthTime bool      `json:"has_birth_time"`
	CreatedAt    time.Time `json:"created_at"`
}

// ChartView активная карта с данными, доступными тарифу
type ChartView struct {
	Version      int         `json:"version"`
	Tier         Tier        `json:"tier"`
	HasBirthTime bool        `json:"has_birth_time"`
	CreatedAt    time.Time   `json:"created_at"`
	DataPoints   []DataPoint `json:"data_points"`
}
