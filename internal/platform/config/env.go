// Package config loads service configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// ParseEnv fills target from environment variables declared with `env:` tags.
// Fields keep their `envDefault:` value when the variable is unset.
func ParseEnv(target any) error {
	if target == nil {
		return fmt.Errorf("config target is required")
	}
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
