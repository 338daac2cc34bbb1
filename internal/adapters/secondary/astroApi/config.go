package astroApi

import "time"

type Config struct {
	BaseURL    string        `envconfig:"BASE_URL"`
	ApiVersion string        `envconfig:"VERSION" default:"v1"`
	APIKey     string        `envconfig:"API_KEY"`
	SkipSSL    string        `envconfig:"SKIP_SSL"` // строка, а не bool: так её отдаёт хостинг
	Timeout    time.Duration `envconfig:"TIMEOUT" default:"8s"`
	// сидерический зодиак и аянамша Лахири по умолчанию
	ZodiacType   string `envconfig:"ZODIAC_TYPE" default:"Sidereal"`
	SiderealMode string `envconfig:"SIDEREAL_MODE" default:"LAHIRI"`
	HouseSystem  string `envconfig:"HOUSE_SYSTEM" default:"W"`
	// страна, если в месте рождения не указан код
	DefaultCountry string `envconfig:"DEFAULT_COUNTRY" default:"IN"`
}

func (c *Config) ShouldSkipSSL() bool {
	return c.SkipSSL == "true" || c.SkipSSL == "1" || c.SkipSSL == "True"
}

// Enabled клиент создаётся только при заданном адресе API
func (c *Config) Enabled() bool {
	return c != nil && c.BaseURL != ""
}
