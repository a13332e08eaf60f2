package envconfig

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Load заполняет cfg из переменных окружения по env-тегам.
// Пустые переменные считаются незаданными, срабатывает envDefault.
func Load(cfg any) error {
	if err := env.ParseWithOptions(cfg, env.Options{}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadFrom то же, что Load, но читает из переданной карты вместо os.Environ.
// Удобно в тестах, где нельзя трогать окружение процесса.
func LoadFrom(cfg any, environment map[string]string) error {
	if err := env.ParseWithOptions(cfg, env.Options{Environment: environment}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
