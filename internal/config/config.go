// Package config provides functionality for managing configuration options
// for the application using command-line flags, environment variables, an
// optional .env file and an optional JSON config file.
//
// Precedence, lowest first: defaults, JSON file, explicitly set flags,
// environment variables.
package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Options holds the configuration values for the application.
type Options struct {
	// ServerAddress defines the server's listening address (ip:port).
	ServerAddress string `json:"server_address"`

	// CanonicalDomain is the service's own root domain. Any other host that
	// is not a development host is treated as a tenant sub-domain.
	CanonicalDomain string `json:"canonical_domain"`

	// BaseURL is the public base URL used when printing short links.
	BaseURL string `json:"base_url"`

	// DatabaseDSN holds the PostgreSQL connection string.
	DatabaseDSN string `json:"database_dsn"`

	// RedisAddr selects the Redis backend when DatabaseDSN is empty.
	RedisAddr     string `json:"redis_addr"`
	RedisPassword string `json:"redis_password"`
	RedisDB       int    `json:"redis_db"`

	// SessionSecret signs the session tokens.
	SessionSecret string `json:"session_secret"`

	// GRPCPort is the gRPC listening port, 0 disables the gRPC server.
	GRPCPort int `json:"grpc_port"`

	// TrustedSubnet is the CIDR allowed to read /metrics.
	TrustedSubnet string `json:"trusted_subnet"`

	// LogLevel is a zap level name.
	LogLevel string `json:"log_level"`

	// EnablePprof indicates whether to enable pprof for performance profiling.
	EnablePprof bool `json:"enable_pprof"`

	// EnableHTTPS indicates whether to serve TLS with autocert.
	EnableHTTPS bool `json:"enable_https"`

	// AdminName and AdminPassword seed an approved administrator at startup.
	AdminName     string `json:"admin_name"`
	AdminPassword string `json:"-"`

	// Config is the path to the JSON config file.
	Config string `json:"-"`
}

// DefaultSessionSecret is the development signing secret. It must be replaced
// in any deployment reachable by others.
const DefaultSessionSecret = "supersecretkey"

func defaults() Options {
	return Options{
		ServerAddress:   "localhost:8080",
		CanonicalDomain: "localhost",
		BaseURL:         "http://localhost:8080",
		SessionSecret:   DefaultSessionSecret,
		GRPCPort:        3200,
		LogLevel:        "info",
	}
}

// cli holds the values bound to command-line flags.
var cli = defaults()

// init initializes command-line flags and sets default values.
func init() {
	flag.StringVar(&cli.ServerAddress, "a", cli.ServerAddress, "run on ip:port server")
	flag.StringVar(&cli.CanonicalDomain, "b", cli.CanonicalDomain, "canonical service domain")
	flag.StringVar(&cli.BaseURL, "u", cli.BaseURL, "public base url")
	flag.StringVar(&cli.DatabaseDSN, "d", "", "postgres dsn")
	flag.StringVar(&cli.RedisAddr, "r", "", "redis address")
	flag.StringVar(&cli.SessionSecret, "k", cli.SessionSecret, "session signing secret")
	flag.IntVar(&cli.GRPCPort, "g", cli.GRPCPort, "grpc port, 0 disables")
	flag.StringVar(&cli.TrustedSubnet, "t", "", "trusted subnet (CIDR) for /metrics")
	flag.StringVar(&cli.LogLevel, "l", cli.LogLevel, "log level")
	flag.BoolVar(&cli.EnablePprof, "p", false, "enable pprof")
	flag.BoolVar(&cli.EnableHTTPS, "s", false, "enable https")
	flag.StringVar(&cli.Config, "c", "", "path to json config")
}

// Parse parses the command-line flags, the config file and the environment
// and returns the resulting options.
func Parse() *Options {
	flag.Parse()

	// a missing .env is normal outside development
	_ = godotenv.Load()

	options := defaults()

	path := cli.Config
	if v := os.Getenv("CONFIG"); v != "" {
		path = v
	}
	if path != "" {
		if err := loadFile(path, &options); err != nil {
			fmt.Fprintf(os.Stderr, "config file %s ignored: %v\n", path, err)
		}
		options.Config = path
	}

	flag.Visit(func(f *flag.Flag) {
		applyFlag(&options, f.Name)
	})

	applyEnv(&options)

	return &options
}

func loadFile(path string, o *Options) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, o)
}

func applyFlag(o *Options, name string) {
	switch name {
	case "a":
		o.ServerAddress = cli.ServerAddress
	case "b":
		o.CanonicalDomain = cli.CanonicalDomain
	case "u":
		o.BaseURL = cli.BaseURL
	case "d":
		o.DatabaseDSN = cli.DatabaseDSN
	case "r":
		o.RedisAddr = cli.RedisAddr
	case "k":
		o.SessionSecret = cli.SessionSecret
	case "g":
		o.GRPCPort = cli.GRPCPort
	case "t":
		o.TrustedSubnet = cli.TrustedSubnet
	case "l":
		o.LogLevel = cli.LogLevel
	case "p":
		o.EnablePprof = cli.EnablePprof
	case "s":
		o.EnableHTTPS = cli.EnableHTTPS
	}
}

func applyEnv(o *Options) {
	strs := map[string]*string{
		"SERVER_ADDRESS":   &o.ServerAddress,
		"CANONICAL_DOMAIN": &o.CanonicalDomain,
		"BASE_URL":         &o.BaseURL,
		"DATABASE_DSN":     &o.DatabaseDSN,
		"REDIS_ADDR":       &o.RedisAddr,
		"REDIS_PASSWORD":   &o.RedisPassword,
		"SESSION_SECRET":   &o.SessionSecret,
		"TRUSTED_SUBNET":   &o.TrustedSubnet,
		"LOG_LEVEL":        &o.LogLevel,
		"ADMIN_NAME":       &o.AdminName,
		"ADMIN_PASSWORD":   &o.AdminPassword,
	}
	for env, dst := range strs {
		if v := os.Getenv(env); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			o.RedisDB = n
		}
	}

	if v := os.Getenv("GRPC_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			o.GRPCPort = n
		}
	}

	if v := os.Getenv("ENABLE_HTTPS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			o.EnableHTTPS = b
		}
	}
}
