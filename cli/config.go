package main

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/alxgraphy/photostat/core/stats"
)

type Config struct {
	Workers int
	Logging LoggingConfig
	Stats   StatsConfig
}

type LoggingConfig struct {
	Level string
}

type StatsConfig struct {
	Frequency string
	TimeOfDay TimeOfDayConfig
}

// TimeOfDayConfig holds the bucket boundary hours; the exact golden-hour
// window is a matter of taste, so it is configurable rather than fixed.
type TimeOfDayConfig struct {
	MorningStart int
	MiddayStart  int
	GoldenStart  int
	NightStart   int
}

func loadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName("photostat")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/photostat")
	v.SetEnvPrefix("PHOTOSTAT")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
	}); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	def := stats.DefaultOptions()

	v.SetDefault("workers", 0) // 0 = GOMAXPROCS
	v.SetDefault("logging.level", "info")
	v.SetDefault("stats.frequency", string(def.Frequency))
	v.SetDefault("stats.timeofday.morningstart", def.TimeOfDay.MorningStart)
	v.SetDefault("stats.timeofday.middaystart", def.TimeOfDay.MiddayStart)
	v.SetDefault("stats.timeofday.goldenstart", def.TimeOfDay.GoldenStart)
	v.SetDefault("stats.timeofday.nightstart", def.TimeOfDay.NightStart)
}

func (c *Config) statsOptions() stats.Options {
	opts := stats.DefaultOptions()
	opts.Frequency = stats.Frequency(c.Stats.Frequency)
	opts.TimeOfDay = stats.TimeOfDayBounds{
		MorningStart: c.Stats.TimeOfDay.MorningStart,
		MiddayStart:  c.Stats.TimeOfDay.MiddayStart,
		GoldenStart:  c.Stats.TimeOfDay.GoldenStart,
		NightStart:   c.Stats.TimeOfDay.NightStart,
	}
	return opts
}
