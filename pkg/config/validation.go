package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Validate checks the configuration against its struct validation tags and
// the cross-field rules the tags cannot express.
func Validate(cfg *Config) error {
	validate := validator.New()

	if err := validate.Struct(cfg); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok {
			for _, fieldErr := range errs {
				return fmt.Errorf("invalid value for %s: failed %q constraint",
					fieldErr.Namespace(), fieldErr.Tag())
			}
		}
		return err
	}

	// Backend-specific requirements are only enforced for the selected
	// backend, so they cannot live in struct tags.
	switch cfg.Store.Backend {
	case "redis":
		if cfg.Store.Redis.Address == "" {
			return fmt.Errorf("store.redis.address is required when backend is redis")
		}
	case "badger":
		if cfg.Store.Badger.Path == "" {
			return fmt.Errorf("store.badger.path is required when backend is badger")
		}
	case "postgres":
		pg := cfg.Store.Postgres
		if pg.Host == "" || pg.Port == 0 || pg.Database == "" || pg.User == "" {
			return fmt.Errorf("store.postgres requires host, port, database, and user when backend is postgres")
		}
	}

	return nil
}
