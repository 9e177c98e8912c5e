// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Ag1104/attendance-system/internal/geo"
)

// Config holds the office geofence, the sign-in window and the storage
// settings. It is built once at startup and passed to the components that
// need it.
type Config struct {
	Port string

	Office        geo.Point
	AllowedRadius float64

	SignInStart TimeOfDay
	OnTimeEnd   TimeOfDay
	// SignInEnd rejects sign-ins after this time when set. Zero means no cutoff.
	SignInEnd TimeOfDay

	Location *time.Location

	RequireKnownStaff bool
	TrustForwardedFor bool

	StaffFile string

	LedgerDriver string
	LedgerPath   string
	Postgres     PostgresConfig
}

type PostgresConfig struct {
	Host     string
	User     string
	Password string
	Name     string
	Port     string
	SSLMode  string
	TimeZone string
}

// DSN renders the connection string in the form gorm's postgres driver expects.
// TimeZone is left out when empty so the server default applies.
func (p PostgresConfig) DSN() string {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		p.Host, p.User, p.Password, p.Name, p.Port, p.SSLMode,
	)
	if p.TimeZone != "" {
		dsn += " TimeZone=" + p.TimeZone
	}
	return dsn
}

// DefaultLedgerPath is where each driver keeps its data when ledger_path is
// not set.
func DefaultLedgerPath(driver string) string {
	switch driver {
	case "sqlite":
		return "attendance_records/attendance.db"
	case "badger":
		return "attendance_records/badger"
	case "csv", "":
		return "attendance_records/attendance.csv"
	}
	return ""
}

var drivers = []string{"csv", "postgres", "sqlite", "badger", "memory"}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("office_latitude", 6.43090)
	v.SetDefault("office_longitude", 3.43615)
	v.SetDefault("allowed_radius_meters", 30.0)
	v.SetDefault("signin_start_time", "05:00")
	v.SetDefault("ontime_end_time", "08:30")
	v.SetDefault("signin_end_time", "")
	v.SetDefault("timezone", "Local")
	v.SetDefault("require_known_staff", false)
	v.SetDefault("trust_forwarded_for", true)
	v.SetDefault("staff_file", "staff_list.csv")
	v.SetDefault("ledger_driver", "csv")
	v.SetDefault("ledger_path", "")
	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_user", "postgres")
	v.SetDefault("db_password", "")
	v.SetDefault("db_name", "attendance")
	v.SetDefault("db_port", "5432")
	v.SetDefault("db_sslmode", "disable")
}

// Load reads configuration from defaults, an optional config file and the
// environment, in increasing order of precedence.
func Load(file string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", file, err)
		}
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		Port: v.GetString("port"),
		Office: geo.Point{
			Latitude:  v.GetFloat64("office_latitude"),
			Longitude: v.GetFloat64("office_longitude"),
		},
		AllowedRadius:     v.GetFloat64("allowed_radius_meters"),
		RequireKnownStaff: v.GetBool("require_known_staff"),
		TrustForwardedFor: v.GetBool("trust_forwarded_for"),
		StaffFile:         v.GetString("staff_file"),
		LedgerDriver:      strings.ToLower(strings.TrimSpace(v.GetString("ledger_driver"))),
		LedgerPath:        strings.TrimSpace(v.GetString("ledger_path")),
	}
	if cfg.LedgerPath == "" {
		cfg.LedgerPath = DefaultLedgerPath(cfg.LedgerDriver)
	}

	var err error
	if cfg.SignInStart, err = ParseTimeOfDay(v.GetString("signin_start_time")); err != nil {
		return Config{}, fmt.Errorf("signin_start_time: %w", err)
	}
	if cfg.OnTimeEnd, err = ParseTimeOfDay(v.GetString("ontime_end_time")); err != nil {
		return Config{}, fmt.Errorf("ontime_end_time: %w", err)
	}
	if end := strings.TrimSpace(v.GetString("signin_end_time")); end != "" {
		if cfg.SignInEnd, err = ParseTimeOfDay(end); err != nil {
			return Config{}, fmt.Errorf("signin_end_time: %w", err)
		}
	}

	tz := v.GetString("timezone")
	if cfg.Location, err = time.LoadLocation(tz); err != nil {
		return Config{}, fmt.Errorf("timezone %q: %w", tz, err)
	}

	cfg.Postgres = PostgresConfig{
		Host:     v.GetString("db_host"),
		User:     v.GetString("db_user"),
		Password: v.GetString("db_password"),
		Name:     v.GetString("db_name"),
		Port:     v.GetString("db_port"),
		SSLMode:  v.GetString("db_sslmode"),
		TimeZone: postgresTimeZone(cfg.Location),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	cfg, err := fromViper(v)
	if err != nil {
		panic(err)
	}
	return cfg
}

func (c Config) Validate() error {
	if !c.Office.Valid() {
		return errors.New("office coordinates are out of range")
	}
	if c.AllowedRadius <= 0 {
		return errors.New("allowed_radius_meters must be positive")
	}
	if c.SignInStart >= c.OnTimeEnd {
		return errors.New("signin_start_time must be before ontime_end_time")
	}
	if c.SignInEnd != 0 && c.SignInEnd <= c.SignInStart {
		return errors.New("signin_end_time must be after signin_start_time")
	}
	if c.Location == nil {
		return errors.New("timezone is required")
	}
	for _, d := range drivers {
		if c.LedgerDriver == d {
			return nil
		}
	}
	return fmt.Errorf("unknown ledger_driver %q (want one of %s)", c.LedgerDriver, strings.Join(drivers, ", "))
}

// postgresTimeZone returns an IANA zone name postgres accepts. "Local" is
// not one, so the process zone is resolved through $TZ or left to the server.
func postgresTimeZone(loc *time.Location) string {
	if loc != time.Local {
		return loc.String()
	}
	if tz := strings.TrimSpace(os.Getenv("TZ")); tz != "" {
		if _, err := time.LoadLocation(tz); err == nil && tz != "Local" {
			return tz
		}
	}
	return ""
}
