package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks configuration for errors
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid value for %s (rule %s)", fe.Namespace(), fe.Tag())
		}
		return err
	}

	if len(cfg.Assets) == 0 {
		return ErrNoAssets
	}

	if len(cfg.Sources) == 0 {
		return ErrNoSourcesConfigured
	}
	enabled := 0
	for i, source := range cfg.Sources {
		if err := validateSourceConfig(&source); err != nil {
			return fmt.Errorf("source %d (%s.%s): %w", i, source.Type, source.Name, err)
		}
		if source.Enabled {
			enabled++
		}
	}
	if enabled == 0 {
		return ErrNoSourcesConfigured
	}

	if strings.ToLower(cfg.Submit.Type) == "http" && cfg.Submit.URL == "" {
		return ErrSubmitURLRequired
	}

	return nil
}

func validateSourceConfig(cfg *SourceConfig) error {
	if cfg.Type == "" {
		return ErrSourceTypeRequired
	}
	validTypes := []string{"cex", "index"}
	typeValid := false
	for _, t := range validTypes {
		if strings.ToLower(cfg.Type) == t {
			typeValid = true
			break
		}
	}
	if !typeValid {
		return fmt.Errorf("%w: %s (must be one of: %s)", ErrInvalidSourceType, cfg.Type, strings.Join(validTypes, ", "))
	}

	if cfg.Name == "" {
		return ErrSourceNameRequired
	}

	return nil
}
