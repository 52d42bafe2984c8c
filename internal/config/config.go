package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

const (
	StoreBackendPostgres  = "postgres"
	StoreBackendFirestore = "firestore"
)

type HTTPConfig struct {
	Host string
	Port int
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type StoreConfig struct {
	Backend             string
	FirebaseProjectID   string
	FirebaseCredentials string
}

type ExternalServicesConfig struct {
	AgroAPIURL      string
	AgroAPIKey      string
	SoilGridsAPIURL string
	OpenMeteoAPIURL string
	NominatimAPIURL string
	GeminiAPIKey    string
	GeminiModel     string
	SourceTimeout   time.Duration
}

type FieldConfig struct {
	RadiusMeters  float64
	PolygonPoints int
}

type Config struct {
	Environment      string
	HTTP             HTTPConfig
	DB               DBConfig
	Store            StoreConfig
	ExternalServices ExternalServicesConfig
	Field            FieldConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")

	v.AutomaticEnv()
	setDefaults(v)

	_ = v.ReadInConfig()

	cfg := fromViper(v)

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("HTTP_HOST", "0.0.0.0")
	v.SetDefault("HTTP_PORT", 8080)
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "30m")
	v.SetDefault("STORE_BACKEND", StoreBackendPostgres)
	v.SetDefault("AGRO_API_URL", "https://api.agromonitoring.com/agro/1.0")
	v.SetDefault("SOILGRIDS_API_URL", "https://rest.soilgrids.org/soilgrids/v2.0")
	v.SetDefault("OPEN_METEO_API_URL", "https://api.open-meteo.com/v1")
	v.SetDefault("NOMINATIM_API_URL", "https://nominatim.openstreetmap.org")
	v.SetDefault("GEMINI_MODEL", "gemini-2.0-flash")
	v.SetDefault("SOURCE_TIMEOUT", "10s")
	v.SetDefault("FIELD_RADIUS_METERS", 1000.0)
	v.SetDefault("FIELD_POLYGON_POINTS", 48)
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host: v.GetString("HTTP_HOST"),
			Port: v.GetInt("HTTP_PORT"),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		},
		Store: StoreConfig{
			Backend:             v.GetString("STORE_BACKEND"),
			FirebaseProjectID:   v.GetString("FIREBASE_PROJECT_ID"),
			FirebaseCredentials: v.GetString("FIREBASE_CREDENTIALS"),
		},
		ExternalServices: ExternalServicesConfig{
			AgroAPIURL:      v.GetString("AGRO_API_URL"),
			AgroAPIKey:      v.GetString("AGRO_API_KEY"),
			SoilGridsAPIURL: v.GetString("SOILGRIDS_API_URL"),
			OpenMeteoAPIURL: v.GetString("OPEN_METEO_API_URL"),
			NominatimAPIURL: v.GetString("NOMINATIM_API_URL"),
			GeminiAPIKey:    v.GetString("GEMINI_API_KEY"),
			GeminiModel:     v.GetString("GEMINI_MODEL"),
			SourceTimeout:   v.GetDuration("SOURCE_TIMEOUT"),
		},
		Field: FieldConfig{
			RadiusMeters:  v.GetFloat64("FIELD_RADIUS_METERS"),
			PolygonPoints: v.GetInt("FIELD_POLYGON_POINTS"),
		},
	}
}

func validate(cfg *Config) error {
	switch cfg.Store.Backend {
	case StoreBackendPostgres:
		if cfg.DB.DSN == "" {
			return fmt.Errorf("DB_DSN is required")
		}
	case StoreBackendFirestore:
		if cfg.Store.FirebaseProjectID == "" {
			return fmt.Errorf("FIREBASE_PROJECT_ID is required")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", cfg.Store.Backend)
	}
	if cfg.ExternalServices.SourceTimeout <= 0 {
		return fmt.Errorf("SOURCE_TIMEOUT must be positive")
	}
	if cfg.Field.RadiusMeters <= 0 {
		return fmt.Errorf("FIELD_RADIUS_METERS must be positive")
	}
	if cfg.Field.PolygonPoints < 3 {
		return fmt.Errorf("FIELD_POLYGON_POINTS must be at least 3")
	}
	return nil
}
