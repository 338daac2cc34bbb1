package astroApi

// BirthData данные о рождении для запроса к API
type BirthData struct {
	Year        int    `json:"year"`
	Month       int    `json:"month"`
	Day         int    `json:"day"`
	Hour        int    `json:"hour"`
	Minute      int    `json:"minute"`
	City        string `json:"city,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
}

// Person субъект карты
type Person struct {
	Name      string    `json:"name"`
	BirthData BirthData `json:"birth_data"`
}

// ChartOptions опции расчёта
type ChartOptions struct {
	HouseSystem  string   `json:"house_system"`
	ZodiacType   string   `json:"zodiac_type"`
	SiderealMode string   `json:"sidereal_mode,omitempty"`
	ActivePoints []string `json:"active_points"`
	Precision    int      `json:"precision"`
}

// ChartRequest запрос натальной карты и позиций на дату
type ChartRequest struct {
	Subject Person       `json:"subject"`
	Options ChartOptions `json:"options"`
}

// ChartResponse ответ API
type ChartResponse struct {
	Status    string     `json:"status"`
	Code      int        `json:"code,omitempty"`
	Message   string     `json:"message,omitempty"`
	RequestID string     `json:"request_id,omitempty"`
	Data      *ChartData `json:"data,omitempty"`
}

type ChartData struct {
	Planets []PlanetPosition `json:"planets,omitempty"`
	Houses  []HousePosition  `json:"houses,omitempty"`
}

// PlanetPosition позиция точки; Name в написании API ("Sun", "Mean_Node", "Ascendant")
type PlanetPosition struct {
	Name       string  `json:"name"`
	Sign       string  `json:"sign"`
	Degree     float64 `json:"degree"`
	AbsPos     float64 `json:"abs_pos"`
	House      int     `json:"house,omitempty"`
	Retrograde bool    `json:"retrograde"`
}

type HousePosition struct {
	House  int     `json:"house"`
	Sign   string  `json:"sign"`
	Degree float64 `json:"degree"`
}

// activePoints точки, которые запрашиваем у API
var activePoints = []string{
	"Sun", "Moon", "Mercury", "Venus", "Mars", "Jupiter", "Saturn",
	"Uranus", "Neptune", "Pluto", "Mean_Node", "Ascendant",
}

// planetNames имя API -> имя планеты в карте; Ketu считается от Rahu
var planetNames = map[string]string{
	"Sun": "sun", "Moon": "moon", "Mercury": "mercury", "Venus": "venus", "Mars": "mars",
	"Jupiter": "jupiter", "Saturn": "saturn", "Uranus": "uranus", "Neptune": "neptune",
	"Pluto": "pluto", "Mean_Node": "rahu", "True_Node": "rahu",
}

// API отдаёт знаки сокращённо
var signAbbreviations = map[string]string{
	"Ari": "Aries", "Tau": "Taurus", "Gem": "Gemini", "Can": "Cancer", "Leo": "Leo", "Vir": "Virgo",
	"Lib": "Libra", "Sco": "Scorpio", "Sag": "Sagittarius", "Cap": "Capricorn", "Aqu": "Aquarius", "Pis": "Pisces",
}
