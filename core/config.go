package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Host            string
		Addr            string
		DebugHost       string
		ShutdownTimeout time.Duration
		AllowedOrigins  []string
		CookieName      string
		SecureCookie    bool
		SessionCheckTTL time.Duration // how long an API-confirmed token is trusted
	}

	APIConfig struct {
		BaseURL string
		Timeout time.Duration
	}

	CacheConfig struct {
		Driver        string // memory | redis
		StaleTime     time.Duration
		RedisAddr     string
		RedisPassword string
		RedisDB       int
	}

	DatabaseConfig struct {
		Engine     string
		Host       string
		Port       string
		Name       string
		User       string
		Password   string
		DisableTLS bool
	}

	MediaConfig struct {
		UploadURL    string
		UploadPreset string
		MaxSize      int64
	}

	MailConfig struct {
		DefaultFromEmail string
		DefaultFromName  string
		SendgridAPIKey   string
	}

	Config struct {
		Env             string
		Build           string
		AppName         string
		Debug           bool
		TestMode        bool
		FrontendBaseURL string
		RollbarToken    string

		API      APIConfig
		Server   ServerConfig
		Cache    CacheConfig
		Database DatabaseConfig
		Media    MediaConfig
		Mail     MailConfig
	}
)

// Address returns the database "host:port" pair.
func (c DatabaseConfig) Address() string {
	if c.Port == "" {
		return c.Host
	}
	return c.Host + ":" + c.Port
}

// Enabled reports whether an activity database is configured.
func (c DatabaseConfig) Enabled() bool { return c.Host != "" }

// NewConfig loads the configuration from the environment.
// ENV selects the env var prefix (DEV by default) and the optional config/.env.<env> file.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("build", "develop")
	v.SetDefault("app_name", "Colegio")
	v.SetDefault("frontend_base_url", "http://localhost:3000")
	v.SetDefault("rollbar_token", "")

	v.SetDefault("api.base_url", "http://localhost:8080/api")
	v.SetDefault("api.timeout", 15*time.Second)

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.debug_host", ":4000")
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.cookie_name", "token")
	v.SetDefault("server.secure_cookie", false)
	v.SetDefault("server.session_check_ttl", 30*time.Second)

	v.SetDefault("cache.driver", "memory")
	v.SetDefault("cache.stale_time", 5*time.Minute)
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "colegio")
	v.SetDefault("database.user", "colegio")
	v.SetDefault("database.password", "")
	v.SetDefault("database.disable_tls", true)

	v.SetDefault("media.upload_url", "")
	v.SetDefault("media.upload_preset", "")
	v.SetDefault("media.max_size", int64(5<<20))

	v.SetDefault("mail.default_from_email", "noreply@localhost")
	v.SetDefault("mail.default_from_name", "Colegio")
	v.SetDefault("mail.sendgrid_api_key", "")

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("test_mode", true)
	}

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(configDir(), ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}

	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Config{
		Env:             env,
		Build:           v.GetString("build"),
		AppName:         v.GetString("app_name"),
		Debug:           v.GetBool("debug"),
		TestMode:        v.GetBool("test_mode"),
		FrontendBaseURL: v.GetString("frontend_base_url"),
		RollbarToken:    v.GetString("rollbar_token"),
		API: APIConfig{
			BaseURL: strings.TrimSuffix(v.GetString("api.base_url"), "/"),
			Timeout: v.GetDuration("api.timeout"),
		},
		Server: ServerConfig{
			Host:            v.GetString("server.host"),
			Addr:            v.GetString("server.addr"),
			DebugHost:       v.GetString("server.debug_host"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
			AllowedOrigins:  v.GetStringSlice("server.allowed_origins"),
			CookieName:      v.GetString("server.cookie_name"),
			SecureCookie:    v.GetBool("server.secure_cookie"),
			SessionCheckTTL: v.GetDuration("server.session_check_ttl"),
		},
		Cache: CacheConfig{
			Driver:        strings.ToLower(v.GetString("cache.driver")),
			StaleTime:     v.GetDuration("cache.stale_time"),
			RedisAddr:     v.GetString("cache.redis_addr"),
			RedisPassword: v.GetString("cache.redis_password"),
			RedisDB:       v.GetInt("cache.redis_db"),
		},
		Database: DatabaseConfig{
			Engine:     v.GetString("database.engine"),
			Host:       v.GetString("database.host"),
			Port:       v.GetString("database.port"),
			Name:       v.GetString("database.name"),
			User:       v.GetString("database.user"),
			Password:   v.GetString("database.password"),
			DisableTLS: v.GetBool("database.disable_tls"),
		},
		Media: MediaConfig{
			UploadURL:    v.GetString("media.upload_url"),
			UploadPreset: v.GetString("media.upload_preset"),
			MaxSize:      v.GetInt64("media.max_size"),
		},
		Mail: MailConfig{
			DefaultFromEmail: v.GetString("mail.default_from_email"),
			DefaultFromName:  v.GetString("mail.default_from_name"),
			SendgridAPIKey:   v.GetString("mail.sendgrid_api_key"),
		},
	}
}

// configDir is where the .env files live. CONFIG_DIR overrides the default "./config".
func configDir() string {
	if dir := os.Getenv("CONFIG_DIR"); dir != "" {
		return dir
	}
	wd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}
	return filepath.Join(wd, "config")
}
