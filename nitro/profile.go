package nitro

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type profileFile struct {
	Endpoint string `yaml:"endpoint"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Timeout  string `yaml:"timeout"`
}

// LoadProfile reads client settings from a YAML profile, so credentials can
// live in a root-owned file instead of the command line.
func LoadProfile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var profile profileFile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}

	if profile.Endpoint == "" {
		return Config{}, fmt.Errorf("%s: endpoint is required", path)
	}

	cfg := Config{
		Endpoint: profile.Endpoint,
		Username: profile.Username,
		Password: profile.Password,
	}

	if profile.Timeout != "" {
		timeout, err := time.ParseDuration(profile.Timeout)
		if err != nil {
			return Config{}, fmt.Errorf("%s: bad timeout: %w", path, err)
		}
		cfg.Timeout = timeout
	}

	return cfg, nil
}
