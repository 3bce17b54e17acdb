// Package config holds the settings shared by the kdtree command and server.
package config

import (
	"os"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Query struct {
	MaxGoroutines uint `yaml:"max_goroutines"`
}

type Server struct {
	Addr      string  `yaml:"addr"`
	TreePath  string  `yaml:"tree_path"`
	RateLimit float64 `yaml:"rate_limit"`
	Burst     int     `yaml:"burst"`
}

type Config struct {
	Splitter string `yaml:"splitter"`
	Log      Log    `yaml:"log"`
	Query    Query  `yaml:"query"`
	Server   Server `yaml:"server"`
}

func Default() Config {
	return Config{
		Splitter: "median",
		Log: Log{
			Level:  "info",
			Format: "text",
		},
		Server: Server{
			Addr:  ":8080",
			Burst: 1,
		},
	}
}

// Load reads a YAML file over the defaults. Unknown keys are rejected. An
// empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return cfg, errors.Wrap(err, "open config")
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, errors.Wrapf(err, "decode config %s", path)
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Splitter {
	case "", "median", "variance", "round-robin":
	default:
		return errors.Newf("unknown splitter %q", c.Splitter)
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return errors.Newf("unknown log format %q", c.Log.Format)
	}
	if c.Server.RateLimit < 0 {
		return errors.Newf("negative rate limit %v", c.Server.RateLimit)
	}
	if 0 < c.Server.RateLimit && c.Server.Burst < 1 {
		return errors.Newf("burst must be positive when rate limiting, got %d", c.Server.Burst)
	}

	return nil
}
