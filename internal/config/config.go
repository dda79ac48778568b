// Package config reads settings from a .env file and STOCKROOM_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/erazemk/stockroom/internal/auth"
	"github.com/erazemk/stockroom/internal/model"
	"github.com/erazemk/stockroom/internal/store"
)

// Config is the full runtime configuration.
type Config struct {
	ShopName string
	Addr     string
	Actor    string
	LogoPath string

	Schema model.Schema
	Store  store.Options
	Gate   auth.GateConfig

	// JWTSecret signs session tokens. When empty the SQLite backend
	// persists a generated one; other backends generate one per process.
	JWTSecret string

	// LoginRate limits login attempts per client, in limiter format ("10-M").
	LoginRate string
}

// settings mirrors the environment one variable per field.
type settings struct {
	ShopName string `env:"STOCKROOM_SHOP_NAME"`
	Addr     string `env:"STOCKROOM_ADDR" validate:"required"`
	Actor    string `env:"STOCKROOM_ACTOR" validate:"required"`
	Logo     string `env:"STOCKROOM_LOGO" validate:"omitempty,file"`

	Password        string `env:"STOCKROOM_PASSWORD" validate:"required"`
	ManagerPassword string `env:"STOCKROOM_MANAGER_PASSWORD"`
	ViewerPassword  string `env:"STOCKROOM_VIEWER_PASSWORD"`
	JWTSecret       string `env:"STOCKROOM_JWT_SECRET" validate:"omitempty,min=16"`
	LoginRate       string `env:"STOCKROOM_LOGIN_RATE" validate:"required"`

	Backend    string `env:"STOCKROOM_BACKEND" validate:"oneof=csv sqlite sheet"`
	CSVPath    string `env:"STOCKROOM_CSV_PATH" validate:"required_if=Backend csv"`
	LogPath    string `env:"STOCKROOM_RESTOCK_LOG_PATH" validate:"required_if=Backend csv"`
	DBPath     string `env:"STOCKROOM_DB" validate:"required_if=Backend sqlite"`
	SheetURL   string `env:"STOCKROOM_SHEET_URL" validate:"required_if=Backend sheet,omitempty,url"`
	SheetToken string `env:"STOCKROOM_SHEET_TOKEN"`

	TrackCategory   bool `env:"STOCKROOM_TRACK_CATEGORY"`
	TrackPrice      bool `env:"STOCKROOM_TRACK_PRICE"`
	TrackSupplier   bool `env:"STOCKROOM_TRACK_SUPPLIER"`
	RequireCategory bool `env:"STOCKROOM_REQUIRE_CATEGORY"`
	RoleGating      bool `env:"STOCKROOM_ROLE_GATING"`
}

// Load reads envFile (if it exists) and then the environment. Variables
// already set in the environment win over the file.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return Config{}, fmt.Errorf("loading %s: %w", envFile, err)
			}
			slog.Debug("no env file found, using environment variables", "path", envFile)
		}
	}

	s := settings{
		ShopName:        getEnv("STOCKROOM_SHOP_NAME", "Stockroom"),
		Addr:            getEnv("STOCKROOM_ADDR", ":8080"),
		Actor:           getEnv("STOCKROOM_ACTOR", "Admin"),
		Logo:            os.Getenv("STOCKROOM_LOGO"),
		Password:        os.Getenv("STOCKROOM_PASSWORD"),
		ManagerPassword: os.Getenv("STOCKROOM_MANAGER_PASSWORD"),
		ViewerPassword:  os.Getenv("STOCKROOM_VIEWER_PASSWORD"),
		JWTSecret:       os.Getenv("STOCKROOM_JWT_SECRET"),
		LoginRate:       getEnv("STOCKROOM_LOGIN_RATE", "10-M"),
		Backend:         strings.ToLower(getEnv("STOCKROOM_BACKEND", store.BackendCSV)),
		CSVPath:         getEnv("STOCKROOM_CSV_PATH", "inventory.csv"),
		LogPath:         getEnv("STOCKROOM_RESTOCK_LOG_PATH", "restock_log.csv"),
		DBPath:          getEnv("STOCKROOM_DB", "stockroom.sqlite3"),
		SheetURL:        os.Getenv("STOCKROOM_SHEET_URL"),
		SheetToken:      os.Getenv("STOCKROOM_SHEET_TOKEN"),
		TrackCategory:   getBool("STOCKROOM_TRACK_CATEGORY", true),
		TrackPrice:      getBool("STOCKROOM_TRACK_PRICE", true),
		TrackSupplier:   getBool("STOCKROOM_TRACK_SUPPLIER", true),
		RequireCategory: getBool("STOCKROOM_REQUIRE_CATEGORY", false),
		RoleGating:      getBool("STOCKROOM_ROLE_GATING", false),
	}
	if err := s.validate(); err != nil {
		return Config{}, err
	}
	return s.config(), nil
}

func (s settings) config() Config {
	schema := model.Schema{
		TrackCategory:   s.TrackCategory,
		TrackPrice:      s.TrackPrice,
		TrackSupplier:   s.TrackSupplier,
		RequireCategory: s.RequireCategory,
		RoleGating:      s.RoleGating,
	}
	return Config{
		ShopName: s.ShopName,
		Addr:     s.Addr,
		Actor:    s.Actor,
		LogoPath: s.Logo,
		Schema:   schema,
		Store: store.Options{
			Backend:    s.Backend,
			Schema:     schema,
			CSVPath:    s.CSVPath,
			LogPath:    s.LogPath,
			DBPath:     s.DBPath,
			SheetURL:   s.SheetURL,
			SheetToken: s.SheetToken,
		},
		Gate: auth.GateConfig{
			Password:        s.Password,
			ManagerPassword: s.ManagerPassword,
			ViewerPassword:  s.ViewerPassword,
			RoleGating:      s.RoleGating,
		},
		JWTSecret: s.JWTSecret,
		LoginRate: s.LoginRate,
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their environment variable.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("env")
	})
	return v
}

func (s settings) validate() error {
	var errs []error

	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validating settings: %w", err)
		}
		for _, fe := range verrs {
			errs = append(errs, errors.New(describe(fe)))
		}
	}
	if s.RequireCategory && !s.TrackCategory {
		errs = append(errs, errors.New("STOCKROOM_REQUIRE_CATEGORY needs STOCKROOM_TRACK_CATEGORY"))
	}
	return errors.Join(errs...)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "required_if":
		parts := strings.Fields(fe.Param())
		return fmt.Sprintf("%s is required by the %s backend", fe.Field(), parts[len(parts)-1])
	case "oneof":
		return fmt.Sprintf("%s must be one of %s, got %q", fe.Field(), fe.Param(), fe.Value())
	case "url":
		return fe.Field() + " must be a URL"
	case "file":
		return fmt.Sprintf("%s: no such file %q", fe.Field(), fe.Value())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		slog.Warn("ignoring invalid boolean setting", "key", key, "value", value)
		return defaultValue
	}
	return b
}
