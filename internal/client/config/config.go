package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds runtime settings for authctl.
type Config struct {
	ServerURL string        `env:"AUTHCTL_SERVER_URL"`
	TokenFile string        `env:"AUTHCTL_TOKEN_FILE"`
	Timeout   time.Duration `env:"AUTHCTL_TIMEOUT"`
}

// LoadDefaults populates c with sensible defaults. The token file lives in
// the user's config directory, or the working directory if that is unknown.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.Timeout = 10 * time.Second

	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	c.TokenFile = filepath.Join(dir, "authkeeper", "tokens.json")
}

// LoadConfig builds a Config from defaults, the JSON file, the environment
// and args, in that order. It also returns the positional arguments left
// after the flags (the command and its operands).
func LoadConfig(args []string) (*Config, []string, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJson(cfg, args); err != nil {
		return nil, nil, err
	}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, nil, err
	}
	rest, err := parseFlags(cfg, args)
	if err != nil {
		return nil, nil, err
	}
	return cfg, rest, nil
}
