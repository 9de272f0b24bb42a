// Package config resolves inference settings from defaults, an optional
// config file, MMP_* environment variables and command-line flags.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Keys understood in config files and flags.
const (
	KeyNumIter      = "num-iter"
	KeyTau          = "tau"
	KeyGradDescent  = "grad-descent"
	KeyLastTimestep = "last-timestep"
	KeyWorkers      = "workers"
	KeyMetricsFile  = "metrics-file"
)

// Settings are the resolved inference settings.
type Settings struct {
	NumIter      int     `mapstructure:"num-iter"`
	Tau          float64 `mapstructure:"tau"`
	GradDescent  bool    `mapstructure:"grad-descent"`
	LastTimestep bool    `mapstructure:"last-timestep"`
	Workers      int     `mapstructure:"workers"`
	MetricsFile  string  `mapstructure:"metrics-file"`
}

// New returns a viper instance with defaults and environment lookup set up.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyNumIter, 10)
	v.SetDefault(KeyTau, 0.25)
	v.SetDefault(KeyGradDescent, false)
	v.SetDefault(KeyLastTimestep, false)
	v.SetDefault(KeyWorkers, 4)
	v.SetDefault(KeyMetricsFile, "")

	v.SetEnvPrefix("MMP")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// BindFlags binds every flag in fs whose name is a settings key.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for _, key := range []string{KeyNumIter, KeyTau, KeyGradDescent, KeyLastTimestep, KeyWorkers, KeyMetricsFile} {
		if f := fs.Lookup(key); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("bind flag %s: %w", key, err)
			}
		}
	}
	return nil
}

// Load reads configFile (if not empty) into v and returns the resolved
// settings.
func Load(v *viper.Viper, configFile string) (*Settings, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks value ranges.
func (s *Settings) Validate() error {
	if s.NumIter < 0 {
		return fmt.Errorf("%s must be >= 0, got %d", KeyNumIter, s.NumIter)
	}
	if s.GradDescent && s.Tau <= 0 {
		return fmt.Errorf("%s must be > 0 with %s, got %v", KeyTau, KeyGradDescent, s.Tau)
	}
	if s.Workers < 1 {
		return fmt.Errorf("%s must be >= 1, got %d", KeyWorkers, s.Workers)
	}
	return nil
}
