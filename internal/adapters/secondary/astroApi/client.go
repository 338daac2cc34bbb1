package astroApi

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/Aagam-Bothara/astranum-sub001/internal/domain"
	"github.com/Aagam-Bothara/astranum-sub001/internal/ports/service"
)

const (
	natalChartEndpoint = "charts/natal"
	positionsEndpoint  = "data/positions"
)

// StatusError ответ API с кодом не 200
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("astro API error [status=%d]: %s", e.StatusCode, e.Body)
}

// Temporary стоит ли повторять запрос
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// IsTemporary сетевые ошибки и 5xx/429 можно повторить, остальное нет
func IsTemporary(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Temporary()
	}
	var decodeErr *DecodeError
	return !errors.As(err, &decodeErr)
}

// DecodeError ответ API не разобрался
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return "astro API unmarshal failed: " + e.Err.Error() }

func (e *DecodeError) Unwrap() error { return e.Err }

// truncateString обрезает строку до указанной длины
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// Client клиент астрологического API (эфемериды)
type Client struct {
	cfg        *Config
	HTTPClient *http.Client
	Log        *slog.Logger
}

var _ service.IAstroAPIService = (*Client)(nil)

func NewClient(cfg *Config, log *slog.Logger) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.ShouldSkipSSL() {
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true,
		}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Client{
		cfg: cfg,
		HTTPClient: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		Log: log,
	}
}

// buildURL собирает полный URL из BaseURL, ApiVersion и endpoint
func (c *Client) buildURL(endpoint string) string {
	baseURL := strings.TrimSuffix(c.cfg.BaseURL, "/")
	return baseURL + "/" + path.Join(c.cfg.ApiVersion, endpoint)
}

func (c *Client) options() ChartOptions {
	return ChartOptions{
		HouseSystem:  c.cfg.HouseSystem,
		ZodiacType:   c.cfg.ZodiacType,
		SiderealMode: c.cfg.SiderealMode,
		ActivePoints: activePoints,
		Precision:    2,
	}
}

// NatalPositions натальные позиции. Без времени рождения считается на полдень,
// асцендент и дома такой карты не используются.
func (c *Client) NatalPositions(ctx context.Context, input service.ChartInput) (*domain.AstrologyData, error) {
	birth := BirthData{
		Year:   input.BirthDate.Year(),
		Month:  int(input.BirthDate.Month()),
		Day:    input.BirthDate.Day(),
		Hour:   12,
		Minute: 0,
	}
	hasBirthTime := false
	if input.BirthTime != nil {
		if t, err := time.Parse("15:04", strings.TrimSpace(*input.BirthTime)); err == nil {
			birth.Hour, birth.Minute = t.Hour(), t.Minute()
			hasBirthTime = true
		}
	}
	if input.BirthPlace != nil {
		birth.City, birth.CountryCode = splitPlace(*input.BirthPlace, c.cfg.DefaultCountry)
	}

	data, err := c.post(ctx, natalChartEndpoint, ChartRequest{
		Subject: Person{Name: input.FullName, BirthData: birth},
		Options: c.options(),
	})
	if err != nil {
		return nil, err
	}
	return toAstrology(data, hasBirthTime)
}

// TransitPositions позиции планет на полдень UTC указанной даты
func (c *Client) TransitPositions(ctx context.Context, date time.Time) (map[string]domain.PlanetPosition, error) {
	data, err := c.post(ctx, positionsEndpoint, ChartRequest{
		Subject: Person{
			Name: "transit",
			BirthData: BirthData{
				Year:   date.Year(),
				Month:  int(date.Month()),
				Day:    date.Day(),
				Hour:   12,
				Minute: 0,
			},
		},
		Options: c.options(),
	})
	if err != nil {
		return nil, err
	}

	positions := make(map[string]domain.PlanetPosition, len(data.Planets))
	for _, p := range data.Planets {
		name, ok := planetNames[p.Name]
		if !ok {
			continue
		}
		pos, err := toPosition(p)
		if err != nil {
			return nil, err
		}
		pos.House = nil
		positions[name] = pos
	}
	if rahu, ok := positions["rahu"]; ok {
		positions["ketu"] = opposite(rahu)
	}
	return positions, nil
}

func (c *Client) post(ctx context.Context, endpoint string, payload ChartRequest) (*ChartData, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.buildURL(endpoint), bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call astro API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read astro API response: %w", err)
	}
	rawJSON := string(body)

	if resp.StatusCode != http.StatusOK {
		c.Log.Debug("astro API returned non-200 status",
			"endpoint", endpoint,
			"status_code", resp.StatusCode,
			"body_preview", truncateString(rawJSON, 200),
		)
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: truncateString(rawJSON, 500)}
	}

	var chartResp ChartResponse
	if err := json.Unmarshal(body, &chartResp); err != nil {
		c.Log.Debug("failed to unmarshal astro API response",
			"endpoint", endpoint,
			"error", err,
			"body_preview", truncateString(rawJSON, 200),
		)
		return nil, &DecodeError{Err: err}
	}
	if chartResp.Data == nil {
		return nil, &DecodeError{Err: fmt.Errorf("empty data (status %q: %s)", chartResp.Status, chartResp.Message)}
	}
	return chartResp.Data, nil
}

func toAstrology(data *ChartData, hasBirthTime bool) (*domain.AstrologyData, error) {
	astro := &domain.AstrologyData{
		Planets:      make(map[string]domain.PlanetPosition),
		HasBirthTime: hasBirthTime,
	}

	var sunFound, moonFound bool
	for _, p := range data.Planets {
		if p.Name == "Ascendant" {
			sign, ok := normalizeSign(p.Sign)
			if !ok {
				return nil, &DecodeError{Err: fmt.Errorf("unknown sign %q", p.Sign)}
			}
			degree := p.Degree
			astro.Ascendant, astro.AscendantDegree = &sign, &degree
			continue
		}

		name, ok := planetNames[p.Name]
		if !ok {
			continue
		}
		pos, err := toPosition(p)
		if err != nil {
			return nil, err
		}

		switch name {
		case "sun":
			astro.SunSign, astro.SunDegree, sunFound = pos.Sign, pos.Degree, true
		case "moon":
			astro.MoonSign, astro.MoonDegree, moonFound = pos.Sign, pos.Degree, true
			nakshatra, pada := domain.NakshatraOf(longitude(p))
			astro.Nakshatra = &nakshatra
			pos.Nakshatra, pos.Pada = &nakshatra, &pada
		}
		astro.Planets[name] = pos
	}
	if !sunFound || !moonFound {
		return nil, &DecodeError{Err: errors.New("response has no sun or moon position")}
	}
	if rahu, ok := astro.Planets["rahu"]; ok {
		astro.Planets["ketu"] = opposite(rahu)
	}

	if len(data.Houses) > 0 {
		astro.Houses = make(map[int]domain.HousePosition, len(data.Houses))
		for _, h := range data.Houses {
			sign, ok := normalizeSign(h.Sign)
			if !ok || h.House < 1 || h.House > 12 {
				continue
			}
			astro.Houses[h.House] = domain.HousePosition{Sign: sign, Degree: h.Degree}
		}
	}
	return astro, nil
}

func toPosition(p PlanetPosition) (domain.PlanetPosition, error) {
	sign, ok := normalizeSign(p.Sign)
	if !ok {
		return domain.PlanetPosition{}, &DecodeError{Err: fmt.Errorf("unknown sign %q for %s", p.Sign, p.Name)}
	}
	pos := domain.PlanetPosition{
		Sign:         sign,
		Degree:       p.Degree,
		IsRetrograde: p.Retrograde,
	}
	if p.House >= 1 && p.House <= 12 {
		house := p.House
		pos.House = &house
	}
	return pos, nil
}

// longitude абсолютная долгота; старые версии API не отдают abs_pos
func longitude(p PlanetPosition) float64 {
	if p.AbsPos > 0 {
		return p.AbsPos
	}
	sign, _ := normalizeSign(p.Sign)
	for i, s := range domain.ZodiacSigns {
		if s == sign {
			return float64(i)*30 + p.Degree
		}
	}
	return p.Degree
}

// opposite Кету всегда напротив Раху
func opposite(rahu domain.PlanetPosition) domain.PlanetPosition {
	for i, s := range domain.ZodiacSigns {
		if s != rahu.Sign {
			continue
		}
		abs := math.Mod(float64(i)*30+rahu.Degree+180, 360)
		return domain.PlanetPosition{
			Sign:         domain.ZodiacSigns[int(abs/30)],
			Degree:       math.Round(math.Mod(abs, 30)*100) / 100,
			IsRetrograde: rahu.IsRetrograde,
		}
	}
	return domain.PlanetPosition{}
}

func normalizeSign(s string) (string, bool) {
	if full, ok := signAbbreviations[strings.TrimSpace(s)]; ok {
		return full, true
	}
	return domain.CanonicalSign(s)
}

// splitPlace "Mumbai, IN" -> ("Mumbai", "IN")
func splitPlace(place, defaultCountry string) (city, country string) {
	parts := strings.Split(place, ",")
	city = strings.TrimSpace(parts[0])
	country = defaultCountry
	if len(parts) > 1 {
		if cc := strings.TrimSpace(parts[len(parts)-1]); len(cc) == 2 {
			country = strings.ToUpper(cc)
		}
	}
	return city, country
}
