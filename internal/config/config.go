// Package config loads runtime configuration from the environment.
package config

import "github.com/ilyakaznacheev/cleanenv"

type Config struct {
	Port           string `env:"PORT" env-default:"8080"`
	DBPath         string `env:"DB_PATH" env-default:"./pokebinder.db"`
	HistoryDir     string `env:"HISTORY_DIR" env-default:"./data/history"`
	ImagesDir      string `env:"IMAGES_DIR" env-default:"./data/card_images"`
	CatalogAPIKey  string `env:"POKEMON_TCG_API_KEY" env-default:""`
	CORSOrigins    string `env:"CORS_ALLOWED_ORIGINS" env-default:"http://localhost:5173,http://localhost:3000"`
	PriceSweep     bool   `env:"PRICE_SWEEP_ENABLED" env-default:"true"`
	HistoryEnabled bool   `env:"HISTORY_RECORDER_ENABLED" env-default:"true"`
}

// Load reads configuration from the environment, applying defaults for
// anything unset.
func Load() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
