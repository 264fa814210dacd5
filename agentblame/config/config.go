// Package config loads per-project configuration. Settings come from an
// optional .agentblame.yaml at the repository root, overridable through
// AGENTBLAME_* environment variables. A missing file yields defaults.
package config

import (
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	// DataDir is where events, commit links and ledgers live.
	DataDir string `mapstructure:"data_dir"`
	// MinTier is the default display cutoff for blame output (1..6).
	MinTier int `mapstructure:"min_tier"`
	// Debug enables debug logging.
	Debug bool `mapstructure:"debug"`
}

func defaults(repoDir string) Config {
	return Config{
		DataDir: filepath.Join(repoDir, ".agentblame"),
		MinTier: 6,
	}
}

// Load reads configuration for the repository at repoDir.
func Load(repoDir string) (Config, error) {
	v := viper.New()
	v.SetConfigName(".agentblame")
	v.SetConfigType("yaml")
	v.AddConfigPath(repoDir)
	v.SetEnvPrefix("AGENTBLAME")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := defaults(repoDir)
	v.SetDefault("data_dir", def.DataDir)
	v.SetDefault("min_tier", def.MinTier)
	v.SetDefault("debug", def.Debug)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return def, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return def, err
	}
	if cfg.MinTier < 1 || cfg.MinTier > 6 {
		cfg.MinTier = 6
	}
	return cfg, nil
}
