package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Load reads the .env file specified by OTTIE_ENV (or .env by default),
// then loads the corresponding .secret file if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("OTTIE_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Load main env file (ignore error if file doesn't exist)
	_ = godotenv.Load(envFile)

	// Load secret sidecar if it exists
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

// RegistrarAPIURL returns the base URL of the domain registrar API.
func RegistrarAPIURL() string {
	u := os.Getenv("REGISTRAR_API_URL")
	if u == "" {
		return "https://api.vercel.com"
	}
	return u
}

func RegistrarAPIToken() string {
	return os.Getenv("REGISTRAR_API_TOKEN")
}

// RegistrarProjectID identifies the platform's project at the registrar,
// under which tenant domains are registered.
func RegistrarProjectID() string {
	return os.Getenv("REGISTRAR_PROJECT_ID")
}

// RegistrarProvider returns the configured registrar provider.
// Valid values: vercel, mock. Defaults to "vercel".
func RegistrarProvider() string {
	p := os.Getenv("REGISTRAR_PROVIDER")
	if p == "" {
		return "vercel"
	}
	return p
}

// PlatformHost returns the default host sites are served from when no
// custom domain is verified.
func PlatformHost() string {
	h := os.Getenv("PLATFORM_HOST")
	if h == "" {
		return "ottie.site"
	}
	return h
}

func MigrationsPath() string {
	p := os.Getenv("MIGRATIONS_PATH")
	if p == "" {
		return "migrations"
	}
	return p
}

// RateLimitRPS returns requests per second limit.
// Defaults to 100 if not set.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 100
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 20 if not set.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 20
	}
	return burst
}
