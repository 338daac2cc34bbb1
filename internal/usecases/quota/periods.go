package quota

import (
	"time"

	"github.com/Aagam-Bothara/astranum-sub001/internal/domain"
)

const (
	dailyLayout   = "2006-01-02"
	monthlyLayout = "2006-01"
	cyclePrefix   = "cycle:"
)

// PeriodKey ключ периода окна на момент now.
// Месячное окно по биллингу начинается в день месяца из anchor; если в месяце
// такого дня нет, цикл начинается в последний день месяца.
func PeriodKey(w domain.Window, plan domain.Plan, now time.Time, loc *time.Location) string {
	local := now.In(loc)
	switch w {
	case domain.WindowDaily:
		return local.Format(dailyLayout)
	case domain.WindowMonthly:
		if plan.CycleAnchor == nil {
			return local.Format(monthlyLayout)
		}
		return cyclePrefix + cycleStart(*plan.CycleAnchor, local).Format(dailyLayout)
	}
	return domain.LifetimePeriodKey
}

func cycleStart(anchor time.Time, local time.Time) time.Time {
	day := anchor.In(local.Location()).Day()

	start := clampedDate(local.Year(), local.Month(), day, local.Location())
	if local.Before(start) {
		prev := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, local.Location()).AddDate(0, -1, 0)
		start = clampedDate(prev.Year(), prev.Month(), day, local.Location())
	}
	return start
}

func clampedDate(year int, month time.Month, day int, loc *time.Location) time.Time {
	if last := daysIn(year, month, loc); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

// chargedWindows окна, которые списываются резервацией.
// Пожизненное окно учитывается только у тарифов с пожизненным лимитом.
func chargedWindows(plan domain.Plan, now time.Time, loc *time.Location) domain.WindowKeys {
	cfg := domain.GetTierConfig(plan.Tier)

	keys := make(domain.WindowKeys, 0, len(domain.WindowOrder))
	for _, w := range domain.WindowOrder {
		if w == domain.WindowLifetime && cfg.LifetimeLimit == nil {
			continue
		}
		keys = append(keys, domain.WindowKey{Window: w, PeriodKey: PeriodKey(w, plan, now, loc)})
	}
	return keys
}
