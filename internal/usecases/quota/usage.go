package quota

import (
	"github.com/Aagam-Bothara/astranum-sub001/internal/domain"
)

// BuildUsage статус использования по счётчикам окон.
// Возвращает первое исчерпанное окно в порядке domain.WindowOrder или пустую строку.
func BuildUsage(tier domain.Tier, counters map[domain.Window]domain.WindowCounter) (domain.UsageStatus, domain.Window) {
	cfg := domain.GetTierConfig(tier)
	usage := domain.UsageStatus{
		Tier:             cfg.Tier,
		MaxResponseChars: cfg.MaxResponseChars,
		CanAskQuestion:   true,
	}

	var exhausted domain.Window
	for _, w := range domain.WindowOrder {
		limit := cfg.Limit(w)
		consumed := counters[w].Consumed()

		switch w {
		case domain.WindowDaily:
			usage.DailyUsed = consumed
			if limit != nil {
				usage.DailyLimit = *limit
				usage.DailyRemaining = remaining(*limit, consumed)
			}
		case domain.WindowMonthly:
			usage.MonthlyUsed = consumed
			if limit != nil {
				usage.MonthlyLimit = *limit
				usage.MonthlyRemaining = remaining(*limit, consumed)
			}
		case domain.WindowLifetime:
			if limit != nil {
				l, used, left := *limit, consumed, remaining(*limit, consumed)
				usage.LifetimeLimit = &l
				usage.LifetimeUsed = &used
				usage.LifetimeRemaining = &left
			}
		}

		if limit != nil && consumed >= *limit && exhausted == "" {
			exhausted = w
			usage.CanAskQuestion = false
			msg := domain.LimitMessage(w, *limit)
			usage.LimitMessage = &msg
		}
	}

	return usage, exhausted
}

func remaining(limit, consumed int) int {
	if consumed >= limit {
		return 0
	}
	return limit - consumed
}
