package config

import (
	"flag"
	"io"
	"time"
)

// parseFlags applies -s, -f and -t to cfg and returns the remaining
// positional arguments. -c/-config are accepted here but handled by
// parseJson.
func parseFlags(cfg *Config, args []string) ([]string, error) {
	fs := flag.NewFlagSet("authctl", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerURL, "s", cfg.ServerURL, "auth server base URL")
	fs.StringVar(&cfg.TokenFile, "f", cfg.TokenFile, "token file")
	timeout := fs.Int("t", int(cfg.Timeout.Seconds()), "request timeout (in seconds)")

	var configPath string
	fs.StringVar(&configPath, "c", "", "path to config file (short)")
	fs.StringVar(&configPath, "config", "", "path to config file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			cfg.Timeout = time.Duration(*timeout) * time.Second
		}
	})
	return fs.Args(), nil
}
