package config

import (
	"fmt"
	"os"
	"path"
	"runtime"
	"strconv"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Public  Public
	Private Private
}

type Public struct {
	HttpPort        int       `yaml:"http_port" validate:"required"`
	Storage         Storage   `yaml:"storage"`
	Mongo           Mongo     `yaml:"mongo"`
	Pg              Pg        `yaml:"pg"`
	HashConcurrency int       `yaml:"hash_concurrency"` // parallel bcrypt computations, defaults to NumCPU
	AllowedOrigins  []string  `yaml:"allowed_origins"`
	SecureHeaders   bool      `yaml:"secure_headers"` // adds HSTS, set when served over https
	LoginRateLimit  RateLimit `yaml:"login_rate_limit"`
	Log             Log       `yaml:"log"`
	Messages        Messages  `yaml:"messages"`
}

type Storage struct {
	Driver string `yaml:"driver" validate:"required,oneof=mongo postgres memory"`
}

type Mongo struct {
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

type Pg struct {
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	User   string `yaml:"user"`
	Dbname string `yaml:"dbname"`
}

// RateLimit is a per client budget: PerMinute tokens a minute, Burst at once.
// A zero PerMinute turns the limit off. TrustProxyHeaders takes the client
// address from X-Real-IP/X-Forwarded-For, set it only behind a proxy that
// overwrites them.
type RateLimit struct {
	PerMinute         float64 `yaml:"per_minute"`
	Burst             int     `yaml:"burst"`
	TrustProxyHeaders bool    `yaml:"trust_proxy_headers"`
}

func (r RateLimit) Enabled() bool {
	return r.PerMinute > 0
}

type Log struct {
	Level        string `yaml:"level"`
	JSON         bool   `yaml:"json"`
	IncidentFile string `yaml:"incident_file"` // unknown errors with client ip, empty means stdout
}

type Messages struct {
	Fields map[string]FieldMessage `yaml:"fields"`
}

type FieldMessage struct {
	Duplicate string `yaml:"duplicate"`
}

// Duplicate returns the uniqueness violation message for field.
func (m Messages) Duplicate(field string) string {
	if f, ok := m.Fields[field]; ok && f.Duplicate != "" {
		return f.Duplicate
	}
	return fmt.Sprintf("A record already exists with the provided %s", field)
}

type Private struct {
	JwtKey     string `yaml:"jwt_key" validate:"required"`
	MongoURI   string `yaml:"mongo_uri"`
	PgPassword string `yaml:"pg_password"`
}

func (s *Config) JwtKey() string {
	return s.Private.JwtKey
}

func mustLoadPath(configPath string, output interface{}) {
	// check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}
	configFile, err := os.ReadFile(configPath)

	if err != nil {
		panic("can't read config file")
	}

	err = yaml.Unmarshal(configFile, output)
	if err != nil {
		panic("can't unmarshal config file: " + err.Error())
	}
}

// applyEnv lets secrets and the port come from the environment.
func (s *Config) applyEnv() {
	if v := os.Getenv("JWT_KEY"); v != "" {
		s.Private.JwtKey = v
	}
	if v := os.Getenv("MONGO_URI"); v != "" {
		s.Private.MongoURI = v
	}
	if v := os.Getenv("PG_PASSWORD"); v != "" {
		s.Private.PgPassword = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			s.Public.HttpPort = port
		}
	}
}

func (s *Config) applyDefaults() {
	if s.Public.HashConcurrency <= 0 {
		s.Public.HashConcurrency = runtime.NumCPU()
	}
	if s.Public.Mongo.Database == "" {
		s.Public.Mongo.Database = "e-comm"
	}
	if s.Public.Mongo.Collection == "" {
		s.Public.Mongo.Collection = "users"
	}
	if s.Public.Log.Level == "" {
		s.Public.Log.Level = "info"
	}
}

// Validate checks required fields and driver specific settings.
func (s *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(s); err != nil {
		return err
	}
	switch s.Public.Storage.Driver {
	case "mongo":
		if s.Private.MongoURI == "" {
			return fmt.Errorf("mongo_uri is required for the mongo storage driver")
		}
	case "postgres":
		if s.Public.Pg.Host == "" || s.Public.Pg.Dbname == "" {
			return fmt.Errorf("pg host and dbname are required for the postgres storage driver")
		}
	}
	return nil
}

func MustLoad(configFolder string) *Config {
	var public Public
	mustLoadPath(path.Join(configFolder, "public.yaml"), &public)

	var private Private
	mustLoadPath(path.Join(configFolder, "private.yaml"), &private)

	cfg := &Config{Public: public, Private: private}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		panic("invalid config: " + err.Error())
	}
	return cfg
}
