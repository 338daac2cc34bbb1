package domain

import (
	"fmt"
	"strconv"
	"strings"
)

type Tier string

const (
	TierFree    Tier = "free"
	TierStarter Tier = "starter"
	TierPro     Tier = "pro"
	TierMax     Tier = "max"
)

func (t Tier) IsValid() bool {
	switch t {
	case TierFree, TierStarter, TierPro, TierMax:
		return true
	}
	return false
}

type MonthlyReset string

const (
	MonthlyResetCalendar     MonthlyReset = "calendar"
	MonthlyResetBillingCycle MonthlyReset = "billing_cycle"
)

type PlanetSet int

const (
	PlanetsBasic   PlanetSet = iota // солнце и луна
	PlanetsLimited                  // + меркурий, венера, марс
	PlanetsAll
)

var planetSets = map[PlanetSet][]string{
	PlanetsBasic:   {"sun", "moon"},
	PlanetsLimited: {"sun", "moon", "mercury", "venus", "mars"},
}

// AllowsPlanet входит ли планета в набор
func (p PlanetSet) AllowsPlanet(name string) bool {
	if p == PlanetsAll {
		return true
	}
	for _, allowed := range planetSets[p] {
		if allowed == name {
			return true
		}
	}
	return false
}

// TierFeatures какие данные карты доступны тарифу
type TierFeatures struct {
	Planets          PlanetSet
	Ascendant        bool
	Houses           bool
	Nakshatra        bool
	Transits         bool
	NumerologyFields []string // nil = все поля
	CanUseBothModes  bool
}

// AllowsNumerology доступно ли нумерологическое поле тарифу
func (f TierFeatures) AllowsNumerology(name string) bool {
	if f.NumerologyFields == nil {
		return true
	}
	for _, allowed := range f.NumerologyFields {
		if allowed == name {
			return true
		}
	}
	return false
}

// TierConfig лимиты и возможности тарифа; nil лимит означает отсутствие ограничения
type TierConfig struct {
	Tier             Tier
	DailyLimit       *int
	MonthlyLimit     *int
	LifetimeLimit    *int
	MonthlyReset     MonthlyReset
	MaxResponseChars int // 0 = без ограничения
	PricePaise       int
	Features         TierFeatures
}

// Limit лимит для окна, nil если окно не ограничено
func (c TierConfig) Limit(w Window) *int {
	switch w {
	case WindowDaily:
		return c.DailyLimit
	case WindowMonthly:
		return c.MonthlyLimit
	case WindowLifetime:
		return c.LifetimeLimit
	}
	return nil
}

// PriceDisplay цена для отображения
func (c TierConfig) PriceDisplay() string {
	return FormatPrice(c.PricePaise)
}

func intPtr(v int) *int {
	return &v
}

var tierConfigs = map[Tier]TierConfig{
	TierFree: {
		Tier:             TierFree,
		LifetimeLimit:    intPtr(2),
		MonthlyReset:     MonthlyResetCalendar,
		MaxResponseChars: 400,
		PricePaise:       0,
		Features: TierFeatures{
			Planets:          PlanetsBasic,
			NumerologyFields: []string{DPLifePath},
		},
	},
	TierStarter: {
		Tier:         TierStarter,
		DailyLimit:   intPtr(3),
		MonthlyLimit: intPtr(15),
		MonthlyReset: MonthlyResetBillingCycle,
		PricePaise:   9900,
		Features: TierFeatures{
			Planets:   PlanetsLimited,
			Ascendant: true,
			Nakshatra: true,
			NumerologyFields: []string{
				DPLifePath, DPDestiny, DPMaturity, DPPersonalYear, DPBirthDay, DPBirthdayNumber,
			},
		},
	},
	TierPro: {
		Tier:         TierPro,
		DailyLimit:   intPtr(4),
		MonthlyLimit: intPtr(80),
		MonthlyReset: MonthlyResetBillingCycle,
		PricePaise:   69900,
		Features: TierFeatures{
			Planets:         PlanetsAll,
			Ascendant:       true,
			Houses:          true,
			Nakshatra:       true,
			Transits:        true,
			CanUseBothModes: true,
		},
	},
	TierMax: {
		Tier:         TierMax,
		DailyLimit:   intPtr(10),
		MonthlyLimit: intPtr(200),
		MonthlyReset: MonthlyResetBillingCycle,
		PricePaise:   199900,
		Features: TierFeatures{
			Planets:         PlanetsAll,
			Ascendant:       true,
			Houses:          true,
			Nakshatra:       true,
			Transits:        true,
			CanUseBothModes: true,
		},
	},
}

// GetTierConfig конфигурация тарифа; неизвестный тариф считается бесплатным
func GetTierConfig(t Tier) TierConfig {
	if cfg, ok := tierConfigs[t]; ok {
		return cfg
	}
	return tierConfigs[TierFree]
}

// FormatPrice "Free" или "₹99/month"
func FormatPrice(paise int) string {
	if paise <= 0 {
		return "Free"
	}
	rupees := paise / 100
	if rem := paise % 100; rem != 0 {
		return fmt.Sprintf("₹%d.%02d/month", rupees, rem)
	}
	return "₹" + groupThousands(rupees) + "/month"
}

func groupThousands(n int) string {
	s := strconv.Itoa(n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
	}
	for i := pre; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
