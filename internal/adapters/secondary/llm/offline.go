package llm

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Aagam-Bothara/astranum-sub001/internal/ports/service"
)

var (
	chartLine  = regexp.MustCompile(`^- ([a-z0-9_]+): (.+?) = (.+)$`)
	lengthLine = regexp.MustCompile(`must stay under (\d+) characters`)
)

// OfflineClient детерминированная модель для локального запуска и нагрузочных тестов:
// отвечает по первым фактам из блока проверенных данных системного промпта
type OfflineClient struct{}

var _ service.ILLMService = OfflineClient{}

func (OfflineClient) Provider() string {
	return ProviderOffline
}

type offlineAnswer struct {
	EmpathyLine    string   `json:"empathy_line"`
	Reasons        []string `json:"reasons"`
	Direction      string   `json:"direction"`
	DataPointsUsed []string `json:"data_points_used"`
	FullResponse   string   `json:"full_response"`
}

func (OfflineClient) Complete(ctx context.Context, req service.CompletionRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	answer := offlineAnswer{
		EmpathyLine: "I hear your question.",
		Direction:   "Take one calm, practical step today.",
	}

	inChart := false
	scanner := bufio.NewScanner(strings.NewReader(req.System))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "VERIFIED CHART DATA") {
			inChart = true
			continue
		}
		if !inChart {
			continue
		}
		m := chartLine.FindStringSubmatch(line)
		if m == nil {
			if strings.TrimSpace(line) == "" {
				inChart = false
			}
			continue
		}
		if len(answer.Reasons) < 2 {
			answer.Reasons = append(answer.Reasons, fmt.Sprintf("Your %s is %s.", m[2], m[3]))
			answer.DataPointsUsed = append(answer.DataPointsUsed, m[1])
		}
	}

	parts := append([]string{answer.EmpathyLine}, answer.Reasons...)
	answer.FullResponse = strings.Join(append(parts, answer.Direction), " ")
	if m := lengthLine.FindStringSubmatch(req.System); m != nil {
		if limit, err := strconv.Atoi(m[1]); err == nil {
			if runes := []rune(answer.FullResponse); len(runes) > limit {
				answer.FullResponse = string(runes[:limit])
			}
		}
	}

	out, err := json.Marshal(answer)
	if err != nil {
		return "", fmt.Errorf("failed to marshal offline answer: %w", err)
	}
	return string(out), nil
}
