package cli

import (
	"fmt"
	"strings"

	"newsletter-go/pkg/config"

	"github.com/pelletier/go-toml/v2"
)

// ShowConfig displays the current configuration
func (a *App) ShowConfig() error {
	data, err := toml.Marshal(a.cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}
	fmt.Fprintln(a.out, string(data))
	return nil
}

// SetConfig sets a configuration value
// Format: section.key=value (e.g., "cli.base_url=http://localhost:8000")
func (a *App) SetConfig(setStr string) error {
	parts := strings.SplitN(setStr, "=", 2)
	if len(parts) != 2 {
		return fmt.Errorf("invalid format: expected 'section.key=value'")
	}

	// Environment overrides stay out of the saved file.
	stored, err := config.LoadFile()
	if err != nil {
		return err
	}
	if err := stored.Set(parts[0], parts[1]); err != nil {
		return err
	}
	if err := a.cfg.Set(parts[0], parts[1]); err != nil {
		return err
	}
	a.client = nil

	return config.Save(stored)
}
