package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/nkiryanov/authservice/internal/logger"
)

const (
	defaultListenAddr   = "localhost:8000"
	defaultRedisAddr    = "localhost:6379"
	defaultLoggingLevel = logger.LevelInfo
	defaultEnvironment  = logger.EnvProduction
)

type Config struct {
	// Default logging level
	LogLevel string

	// Environment (dev, prod)
	Environment string

	// Address on which the service will be run
	ListenAddr string

	// Database to connect to
	DatabaseDSN string

	// Redis holding short lived verification and reset tokens
	RedisAddr string

	// JWT signing options. All three are required at startup
	// Audiences is an ordered list, the first entry is used when signing
	JwtKey       string
	JwtIssuer    string
	JwtAudiences []string

	// Email delivery API: token is appended to the URL
	EmailAPIURL   string
	EmailAPIToken string

	// Base URL of the frontend app for verification links
	AppURL string
}

func NewConfig() *Config {
	return &Config{
		LogLevel:    defaultLoggingLevel,
		Environment: defaultEnvironment,
		ListenAddr:  defaultListenAddr,
		RedisAddr:   defaultRedisAddr,
	}
}

// Load variable from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		c.LoadEnv(func(key string) string {
			return envMap[key]
		})
		return nil
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) {
		return func(value string) {
			if value != "" {
				*o = value
			}
		}
	}
	setStrings := func(o *[]string) func(value string) {
		return func(value string) {
			if value != "" {
				*o = strings.Split(value, ",")
			}
		}
	}

	envMap := map[string]func(string){
		"RUN_ADDRESS":     setString(&c.ListenAddr),
		"DATABASE_URI":    setString(&c.DatabaseDSN),
		"REDIS_ADDR":      setString(&c.RedisAddr),
		"LOG_LEVEL":       setString(&c.LogLevel),
		"ENVIRONMENT":     setString(&c.Environment),
		"JWT_KEY":         setString(&c.JwtKey),
		"JWT_ISSUER":      setString(&c.JwtIssuer),
		"JWT_AUDIENCES":   setStrings(&c.JwtAudiences),
		"EMAIL_API_URL":   setString(&c.EmailAPIURL),
		"EMAIL_API_TOKEN": setString(&c.EmailAPIToken),
		"APP_URL":         setString(&c.AppURL),
	}

	for key, parseFn := range envMap {
		parseFn(getenv(key))
	}
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("authservice", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string")
	fs.StringVarP(&c.RedisAddr, "redis", "r", c.RedisAddr, "Redis address")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod)")
	fs.StringVar(&c.JwtKey, "jwt-key", c.JwtKey, "JWT signing secret")
	fs.StringVar(&c.JwtIssuer, "jwt-issuer", c.JwtIssuer, "JWT issuer")
	fs.StringSliceVar(&c.JwtAudiences, "jwt-audiences", c.JwtAudiences, "JWT audiences, first one is used when signing")
	fs.StringVar(&c.EmailAPIURL, "email-api-url", c.EmailAPIURL, "Email delivery API URL")
	fs.StringVar(&c.EmailAPIToken, "email-api-token", c.EmailAPIToken, "Email delivery API token")
	fs.StringVar(&c.AppURL, "app-url", c.AppURL, "Frontend app base URL for verification links")

	return fs.Parse(args)
}

// Validate required options
// Missing signing configuration is fatal at startup, never a per-request error
func (c *Config) Validate() error {
	missing := make([]string, 0)

	if c.DatabaseDSN == "" {
		missing = append(missing, "database dsn")
	}
	if c.JwtKey == "" {
		missing = append(missing, "jwt key")
	}
	if c.JwtIssuer == "" {
		missing = append(missing, "jwt issuer")
	}
	if len(c.JwtAudiences) == 0 {
		missing = append(missing, "jwt audiences")
	}

	if len(missing) != 0 {
		return fmt.Errorf("required config options not set: %s", strings.Join(missing, ", "))
	}

	return nil
}
