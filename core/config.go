package core

import (
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Debug     bool
		TestMode  bool
		Env       string // DEV (default), TEST, QA, PROD
		Build     string
		AppName   string
		SecretKey string

		FrontendBaseURL string

		// Backend is the hosted service the app delegates auth, tabular data
		// and file storage to. Both values must be present and well-formed for
		// the backend to be considered usable; checked once at start-up.
		Backend struct {
			URL string
			Key string
		}

		Server struct {
			Host                 string
			Addr                 string
			DebugHost            string
			ShutdownTimeout      time.Duration
			TokenExpirationDelta time.Duration
		}

		// Database is only used in self-hosted mode (backend/postgres).
		Database struct {
			Engine        string
			Name          string
			User          string
			Password      string
			AdminUser     string
			AdminPassword string
			Host          string
			Port          string
			DisableTLS    bool
		}

		// Media is only used in self-hosted mode; uploaded course files land
		// under Root and are served back via HMAC-signed URLs.
		Media struct {
			Root    string
			BaseURL string
		}

		DefaultFromEmail string
		SendgridAPIKey   string
		RollbarToken     string
	}
)

// NewConfig loads the app configuration from the environment.
// A config/.env.<env> file is loaded first if it exists.
func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("debug", true)
	v.SetDefault("build", "dev")
	v.SetDefault("appName", "Elimu")
	v.SetDefault("secretKey", "w#4+zo)e&yp1!r8u5kfxn$2m-qc7vj^3hb=ad9g*t6s_l0i(es")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("serverHost", "localhost")
	v.SetDefault("serverAddr", ":8000")
	v.SetDefault("serverDebugHost", "localhost:8001")
	v.SetDefault("serverShutdownTimeout", 5*time.Second)
	v.SetDefault("tokenExpirationDelta", 7*24*time.Hour)
	v.SetDefault("dbEngine", "postgres")
	v.SetDefault("dbName", "") // set to enable the self-hosted database backend
	v.SetDefault("dbHost", "localhost")
	v.SetDefault("dbPort", "5432")
	v.SetDefault("dbDisableTLS", true)
	v.SetDefault("mediaRoot", filepath.Join(os.TempDir(), "elimu-media"))
	v.SetDefault("defaultFromEmail", "noreply@localhost")

	env := os.Getenv("ENV")
	if env == "" {
		env = "DEV"
	}
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	conf := &Config{
		Debug:            v.GetBool("debug"),
		TestMode:         env == "TEST",
		Env:              env,
		Build:            v.GetString("build"),
		AppName:          v.GetString("appName"),
		SecretKey:        v.GetString("secretKey"),
		FrontendBaseURL:  v.GetString("frontendBaseURL"),
		DefaultFromEmail: v.GetString("defaultFromEmail"),
		SendgridAPIKey:   v.GetString("sendgridApiKey"),
		RollbarToken:     v.GetString("rollbarToken"),
	}
	conf.Backend.URL = v.GetString("backendURL")
	conf.Backend.Key = v.GetString("backendKey")
	conf.Server.Host = v.GetString("serverHost")
	conf.Server.Addr = v.GetString("serverAddr")
	conf.Server.DebugHost = v.GetString("serverDebugHost")
	conf.Server.ShutdownTimeout = v.GetDuration("serverShutdownTimeout")
	conf.Server.TokenExpirationDelta = v.GetDuration("tokenExpirationDelta")
	conf.Database.Engine = v.GetString("dbEngine")
	conf.Database.Name = v.GetString("dbName")
	conf.Database.User = v.GetString("dbUser")
	conf.Database.Password = v.GetString("dbPassword")
	conf.Database.AdminUser = v.GetString("dbAdminUser")
	conf.Database.AdminPassword = v.GetString("dbAdminPassword")
	conf.Database.Host = v.GetString("dbHost")
	conf.Database.Port = v.GetString("dbPort")
	conf.Database.DisableTLS = v.GetBool("dbDisableTLS")
	conf.Media.Root = v.GetString("mediaRoot")
	conf.Media.BaseURL = v.GetString("mediaBaseURL")
	return conf
}

// BackendConfigured reports whether the hosted backend credentials are present
// and structurally valid. It never performs network I/O; the result is fixed
// for the process lifetime.
func (conf *Config) BackendConfigured() bool {
	if conf.Backend.URL == "" || conf.Backend.Key == "" {
		return false
	}
	u, err := url.Parse(conf.Backend.URL)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// DatabaseAddress returns the host:port of the self-hosted database.
func (conf *Config) DatabaseAddress() string {
	return conf.Database.Host + ":" + conf.Database.Port
}
