package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Канонические имена DataPoint
const (
	DPLifePath       = "life_path"
	DPDestiny        = "destiny_number"
	DPSoulUrge       = "soul_urge"
	DPPersonality    = "personality_number"
	DPBirthDay       = "birth_day"
	DPBirthdayNumber = "birthday_number"
	DPMaturity       = "maturity_number"
	DPPersonalYear   = "personal_year"
	DPKarmicDebt     = "karmic_debt"
	DPNameUsed       = "name_used"

	DPAscendant       = "ascendant"
	DPAscendantDegree = "ascendant_degree"
	DPNakshatra       = "nakshatra"
	DPTransitDate     = "transit_date"
)

func PlanetSignName(planet string) string { return planet + "_sign" }

func PlanetDegreeName(planet string) string { return planet + "_degree" }

func HouseSignName(house int) string { return fmt.Sprintf("house_%d_sign", house) }

func TransitSignName(planet string) string { return "transit_" + planet + "_sign" }

func TransitDegreeName(planet string) string { return "transit_" + planet + "_degree" }

type DataPointKind string

const (
	KindNumber DataPointKind = "number"
	KindSign   DataPointKind = "sign"
	KindDegree DataPointKind = "degree"
	KindText   DataPointKind = "text"
)

type DataPointCategory string

const (
	CategoryNumerology DataPointCategory = "numerology"
	CategoryAstrology  DataPointCategory = "astrology"
	CategoryTransit    DataPointCategory = "transit"
)

// DataPoint атомарный факт карты, единица словаря для проверки ответа
type DataPoint struct {
	Name          string            `json:"name"`
	Label         string            `json:"label"`
	Value         string            `json:"value"`
	Kind          DataPointKind     `json:"kind"`
	Category      DataPointCategory `json:"category"`
	Body          string            `json:"body,omitempty"` // планета для позиционных фактов
	TimeSensitive bool              `json:"time_sensitive,omitempty"`
}

// Int значение числового DataPoint
func (d DataPoint) Int() (int, bool) {
	v, err := strconv.Atoi(d.Value)
	return v, err == nil
}

// Float значение градуса
func (d DataPoint) Float() (float64, bool) {
	v, err := strconv.ParseFloat(d.Value, 64)
	return v, err == nil
}

func (d DataPoint) String() string {
	return d.Name + "=" + d.Value
}

// DataPointSet упорядоченный набор DataPoint без дубликатов по имени
type DataPointSet struct {
	order  []string
	points map[string]DataPoint
}

func NewDataPointSet(points ...DataPoint) DataPointSet {
	s := DataPointSet{points: make(map[string]DataPoint, len(points))}
	for _, p := range points {
		s.add(p)
	}
	return s
}

func (s *DataPointSet) add(p DataPoint) {
	if s.points == nil {
		s.points = make(map[string]DataPoint)
	}
	if _, exists := s.points[p.Name]; !exists {
		s.order = append(s.order, p.Name)
	}
	s.points[p.Name] = p
}

func (s DataPointSet) Get(name string) (DataPoint, bool) {
	p, ok := s.points[name]
	return p, ok
}

func (s DataPointSet) Has(name string) bool {
	_, ok := s.points[name]
	return ok
}

func (s DataPointSet) Len() int {
	return len(s.order)
}

func (s DataPointSet) Names() []string {
	names := make([]string, len(s.order))
	copy(names, s.order)
	return names
}

func (s DataPointSet) Points() []DataPoint {
	points := make([]DataPoint, 0, len(s.order))
	for _, name := range s.order {
		points = append(points, s.points[name])
	}
	return points
}

// Filter новый набор из точек, для которых keep вернул true
func (s DataPointSet) Filter(keep func(DataPoint) bool) DataPointSet {
	out := DataPointSet{points: make(map[string]DataPoint)}
	for _, name := range s.order {
		if p := s.points[name]; keep(p) {
			out.add(p)
		}
	}
	return out
}

// HasCategory есть ли в наборе точки категории
func (s DataPointSet) HasCategory(c DataPointCategory) bool {
	for _, p := range s.points {
		if p.Category == c {
			return true
		}
	}
	return false
}

// FindBody позиционный DataPoint планеты нужного вида и категории
func (s DataPointSet) FindBody(body string, kind DataPointKind, category DataPointCategory) (DataPoint, bool) {
	var name string
	switch {
	case body == DPAscendant && kind == KindSign:
		name = DPAscendant
	case body == DPAscendant && kind == KindDegree:
		name = DPAscendantDegree
	case category == CategoryTransit && kind == KindSign:
		name = TransitSignName(body)
	case category == CategoryTransit && kind == KindDegree:
		name = TransitDegreeName(body)
	case kind == KindSign:
		name = PlanetSignName(body)
	case kind == KindDegree:
		name = PlanetDegreeName(body)
	default:
		return DataPoint{}, false
	}
	return s.Get(name)
}

// ForTier оставляет только данные, доступные тарифу
func (s DataPointSet) ForTier(f TierFeatures) DataPointSet {
	return s.Filter(func(p DataPoint) bool {
		switch p.Category {
		case CategoryNumerology:
			if p.Name == DPNameUsed {
				return true
			}
			return f.AllowsNumerology(p.Name)
		case CategoryTransit:
			return f.Transits
		}

		switch {
		case p.Name == DPAscendant || p.Name == DPAscendantDegree:
			return f.Ascendant
		case strings.HasPrefix(p.Name, "house_"):
			return f.Houses
		case p.Name == DPNakshatra:
			return f.Nakshatra
		case p.Body != "":
			return f.Planets.AllowsPlanet(p.Body)
		}
		return true
	})
}

// ForMode оставляет данные, относящиеся к режиму
func (s DataPointSet) ForMode(mode GuidanceMode) DataPointSet {
	return s.Filter(func(p DataPoint) bool {
		switch p.Category {
		case CategoryNumerology:
			return mode.UsesNumerology()
		default:
			return mode.UsesAstrology()
		}
	})
}

// WithoutTimeSensitive убирает асцендент и дома
func (s DataPointSet) WithoutTimeSensitive() DataPointSet {
	return s.Filter(func(p DataPoint) bool { return !p.TimeSensitive })
}

var planetLabels = map[string]string{
	"sun":     "Sun", "moon": "Moon", "mercury": "Mercury", "venus": "Venus", "mars": "Mars",
	"jupiter": "Jupiter", "saturn": "Saturn", "rahu": "Rahu", "ketu": "Ketu",
	"uranus":  "Uranus", "neptune": "Neptune", "pluto": "Pluto",
}

// PlanetLabel название планеты для текста
func PlanetLabel(planet string) string {
	if label, ok := planetLabels[planet]; ok {
		return label
	}
	return planet
}

func formatDegree(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// ExtractDataPoints каноническое извлечение всех фактов снапшота
func ExtractDataPoints(s *ChartSnapshot) DataPointSet {
	set := DataPointSet{points: make(map[string]DataPoint)}
	if s == nil {
		return set
	}

	if n := s.Numerology; n != nil {
		num := func(name, label string, v int) {
			set.add(DataPoint{Name: name, Label: label, Value: strconv.Itoa(v), Kind: KindNumber, Category: CategoryNumerology})
		}
		num(DPLifePath, "Life Path number", n.LifePath)
		num(DPDestiny, "Destiny number", n.Destiny)
		num(DPSoulUrge, "Soul Urge number", n.SoulUrge)
		num(DPPersonality, "Personality number", n.Personality)
		num(DPBirthDay, "Birth day", n.BirthDay)
		if n.BirthdayNumber != nil {
			num(DPBirthdayNumber, "Birthday number", *n.BirthdayNumber)
		}
		if n.Maturity != nil {
			num(DPMaturity, "Maturity number", *n.Maturity)
		}
		if n.PersonalYear != nil {
			num(DPPersonalYear, "Personal Year number", *n.PersonalYear)
		}
		if len(n.KarmicDebt) > 0 {
			debts := make([]string, len(n.KarmicDebt))
			for i, d := range n.KarmicDebt {
				debts[i] = strconv.Itoa(d)
			}
			set.add(DataPoint{Name: DPKarmicDebt, Label: "Karmic debt numbers", Value: strings.Join(debts, ","), Kind: KindText, Category: CategoryNumerology})
		}
		if n.NameUsed != "" {
			set.add(DataPoint{Name: DPNameUsed, Label: "Name used", Value: n.NameUsed, Kind: KindText, Category: CategoryNumerology})
		}
	}

	if a := s.Astrology; a != nil {
		position := func(body string, sign string, degree float64) {
			set.add(DataPoint{Name: PlanetSignName(body), Label: PlanetLabel(body) + " sign", Value: sign, Kind: KindSign, Category: CategoryAstrology, Body: body})
			set.add(DataPoint{Name: PlanetDegreeName(body), Label: PlanetLabel(body) + " degree", Value: formatDegree(degree), Kind: KindDegree, Category: CategoryAstrology, Body: body})
		}
		position("sun", a.SunSign, a.SunDegree)
		position("moon", a.MoonSign, a.MoonDegree)

		if a.Ascendant != nil {
			set.add(DataPoint{Name: DPAscendant, Label: "Ascendant", Value: *a.Ascendant, Kind: KindSign, Category: CategoryAstrology, TimeSensitive: true})
		}
		if a.AscendantDegree != nil {
			set.add(DataPoint{Name: DPAscendantDegree, Label: "Ascendant degree", Value: formatDegree(*a.AscendantDegree), Kind: KindDegree, Category: CategoryAstrology, TimeSensitive: true})
		}

		for _, planet := range Planets {
			if planet == "sun" || planet == "moon" {
				continue
			}
			if pos, ok := a.Planets[planet]; ok {
				position(planet, pos.Sign, pos.Degree)
			}
		}

		if a.Nakshatra != nil {
			set.add(DataPoint{Name: DPNakshatra, Label: "Moon nakshatra", Value: *a.Nakshatra, Kind: KindText, Category: CategoryAstrology})
		}

		for house := 1; house <= 12; house++ {
			if pos, ok := a.Houses[house]; ok {
				set.add(DataPoint{Name: HouseSignName(house), Label: fmt.Sprintf("House %d sign", house), Value: pos.Sign, Kind: KindSign, Category: CategoryAstrology, TimeSensitive: true})
			}
		}
	}

	if t := s.Transit; t != nil {
		set.add(DataPoint{Name: DPTransitDate, Label: "Transit date", Value: t.Date, Kind: KindText, Category: CategoryTransit})
		for _, planet := range Planets {
			pos, ok := t.Positions[planet]
			if !ok {
				continue
			}
			set.add(DataPoint{Name: TransitSignName(planet), Label: "Transiting " + PlanetLabel(planet) + " sign", Value: pos.Sign, Kind: KindSign, Category: CategoryTransit, Body: planet})
			set.add(DataPoint{Name: TransitDegreeName(planet), Label: "Transiting " + PlanetLabel(planet) + " degree", Value: formatDegree(pos.Degree), Kind: KindDegree, Category: CategoryTransit, Body: planet})
		}
	}

	return set
}

var dataPointAliases = map[string]string{
	"lifepath":             DPLifePath,
	"life_path_number":     DPLifePath,
	"destiny":              DPDestiny,
	"expression":           DPDestiny,
	"expression_number":    DPDestiny,
	"soul_urge_number":     DPSoulUrge,
	"soulurge":             DPSoulUrge,
	"hearts_desire":        DPSoulUrge,
	"personality":          DPPersonality,
	"birthday":             DPBirthdayNumber,
	"birth_day_number":     DPBirthdayNumber,
	"maturity":             DPMaturity,
	"personal_year_number": DPPersonalYear,
	"karmic_debt_numbers":  DPKarmicDebt,
	"rising":               DPAscendant,
	"rising_sign":          DPAscendant,
	"lagna":                DPAscendant,
	"ascendant_sign":       DPAscendant,
	"asc":                  DPAscendant,
	"moon_nakshatra":       DPNakshatra,
	"janma_nakshatra":      DPNakshatra,
}

var (
	ordinalHouseName = regexp.MustCompile(`^(\d{1,2})(?:st|nd|rd|th)_house(?:_sign)?$`)
	bareHouseName    = regexp.MustCompile(`^house_(\d{1,2})$`)
	separatorRun     = regexp.MustCompile(`[\s\-.]+`)
	underscoreRun    = regexp.MustCompile(`_+`)
)

// CitedValue значение, указанное в ссылке на DataPoint: "lifePath=7" -> "7", "moon_sign: Leo" -> "Leo".
// Пустая строка, если ссылка содержит только имя.
func CitedValue(raw string) string {
	i := strings.IndexAny(raw, "=:")
	if i < 0 {
		return ""
	}
	return strings.TrimSpace(raw[i+1:])
}

// NormalizeDataPointName приводит упоминание DataPoint к каноническому имени:
// "moonSign=Cancer" -> "moon_sign", "Life Path" -> "life_path", "rising" -> "ascendant"
func NormalizeDataPointName(raw string) string {
	s := strings.TrimSpace(raw)
	if i := strings.IndexAny(s, "=:"); i >= 0 {
		s = s[:i]
	}

	var b strings.Builder
	var prev rune
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 && (unicode.IsLower(prev) || unicode.IsDigit(prev)) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
		prev = r
	}

	s = separatorRun.ReplaceAllString(b.String(), "_")
	s = underscoreRun.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")

	if alias, ok := dataPointAliases[s]; ok {
		return alias
	}
	if m := ordinalHouseName.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[1])
		return HouseSignName(n)
	}
	if m := bareHouseName.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[1])
		return HouseSignName(n)
	}
	if _, ok := planetLabels[s]; ok {
		return PlanetSignName(s)
	}
	return s
}

// IsTimeSensitiveName относится ли имя к асценденту или домам
func IsTimeSensitiveName(name string) bool {
	return name == DPAscendant || name == DPAscendantDegree || strings.HasPrefix(name, "house_")
}
