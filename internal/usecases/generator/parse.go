package generator

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/Aagam-Bothara/astranum-sub001/internal/domain"
)

var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*\\})\\s*```")

type rawCandidate struct {
	EmpathyLine    string          `json:"empathy_line"`
	Reasons        json.RawMessage `json:"reasons"`
	Direction      string          `json:"direction"`
	Caution        *string         `json:"caution"`
	DataPointsUsed []string        `json:"data_points_used"`
	FullResponse   string          `json:"full_response"`
}

// ParseCandidate разбирает ответ модели: JSON (в том числе в ```json блоке)
// или обычный текст, который целиком становится full_response
func ParseCandidate(raw string) *domain.CandidateAnswer {
	text := strings.TrimSpace(raw)

	if obj, ok := extractJSON(text); ok {
		var rc rawCandidate
		if err := json.Unmarshal([]byte(obj), &rc); err == nil && (rc.FullResponse != "" || rc.EmpathyLine != "" || rc.Direction != "") {
			return rc.toCandidate()
		}
	}

	return &domain.CandidateAnswer{FullResponse: text}
}

func extractJSON(text string) (string, bool) {
	if m := fencedJSON.FindStringSubmatch(text); m != nil {
		return m[1], true
	}
	start, end := strings.Index(text, "{"), strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

func (rc rawCandidate) toCandidate() *domain.CandidateAnswer {
	c := &domain.CandidateAnswer{
		EmpathyLine:    strings.TrimSpace(rc.EmpathyLine),
		Reasons:        parseReasons(rc.Reasons),
		Direction:      strings.TrimSpace(rc.Direction),
		DataPointsUsed: rc.DataPointsUsed,
		FullResponse:   strings.TrimSpace(rc.FullResponse),
	}
	if rc.Caution != nil && strings.TrimSpace(*rc.Caution) != "" {
		caution := strings.TrimSpace(*rc.Caution)
		c.Caution = &caution
	}
	if c.FullResponse == "" {
		c.FullResponse = composeFullResponse(c)
	}
	return c
}

// модели иногда отдают reasons строкой вместо массива
func parseReasons(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil && strings.TrimSpace(single) != "" {
		return []string{strings.TrimSpace(single)}
	}
	return nil
}

func composeFullResponse(c *domain.CandidateAnswer) string {
	parts := make([]string, 0, len(c.Reasons)+3)
	if c.EmpathyLine != "" {
		parts = append(parts, c.EmpathyLine)
	}
	parts = append(parts, c.Reasons...)
	if c.Direction != "" {
		parts = append(parts, c.Direction)
	}
	if c.Caution != nil {
		parts = append(parts, *c.Caution)
	}
	return strings.Join(parts, " ")
}
