package main

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/nkiryanov/sharefin/internal/logger"
)

const (
	defaultAPIAddr      = "http://localhost:8000"
	defaultLoggingLevel = logger.LevelWarn
)

type Config struct {
	// Base URL of the sharefin server
	APIAddr string

	// Local state file; '<user config dir>/sharefin/state.json' if empty
	StatePath string

	LogLevel string
}

func NewConfig() *Config {
	return &Config{
		APIAddr:  defaultAPIAddr,
		LogLevel: defaultLoggingLevel,
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
	setString := func(o *string) func(value string) {
		return func(value string) {
			if value != "" {
				*o = value
			}
		}
	}

	envMap := map[string]func(string){
		"SHAREFIN_API":   setString(&c.APIAddr),
		"SHAREFIN_STATE": setString(&c.StatePath),
		"LOG_LEVEL":      setString(&c.LogLevel),
	}

	for key, parseFn := range envMap {
		parseFn(getenv(key))
	}
}

// Parse global flags and return the command with its arguments
func (c *Config) ParseFlags(args []string) ([]string, error) {
	fs := pflag.NewFlagSet("sharefinctl", pflag.ContinueOnError)
	fs.SetInterspersed(false)

	fs.StringVarP(&c.APIAddr, "api", "a", c.APIAddr, "Sharefin server URL")
	fs.StringVar(&c.StatePath, "state", c.StatePath, "Local state file")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return fs.Args(), nil
}
