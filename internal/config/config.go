package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server  ServerConfig
	Project ProjectConfig
	SSH     SSHConfig
	Logging LoggingConfig
}

type ServerConfig struct {
	Port         int
	AllowOrigins []string
}

type ProjectConfig struct {
	Root           string
	DescriptorFile string
}

type SSHConfig struct {
	ConnectTimeout        time.Duration
	KeyPath               string
	Passphrase            string
	Password              string
	KnownHostsPath        string
	InsecureIgnoreHostKey bool
	UseAgent              bool
}

type LoggingConfig struct {
	Level  string
	Format string
}

func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnvAsInt("SERVER_PORT", 8080),
			AllowOrigins: getEnvAsList("CORS_ALLOW_ORIGINS", []string{"http://localhost:3000"}),
		},
		Project: ProjectConfig{
			Root:           getEnvAsString("PROJECT_ROOT", workingDir()),
			DescriptorFile: getEnvAsString("DEPLOY_DESCRIPTOR", DefaultDescriptorFile),
		},
		SSH: SSHConfig{
			ConnectTimeout:        time.Duration(getEnvAsInt("SSH_CONNECT_TIMEOUT", 30)) * time.Second,
			KeyPath:               getEnvAsString("SSH_KEY_PATH", homePath(".ssh", "id_rsa")),
			Passphrase:            os.Getenv("SSH_KEY_PASSPHRASE"),
			Password:              os.Getenv("SSH_PASSWORD"),
			KnownHostsPath:        getEnvAsString("SSH_KNOWN_HOSTS", homePath(".ssh", "known_hosts")),
			InsecureIgnoreHostKey: getEnvAsBool("SSH_INSECURE_IGNORE_HOST_KEY", false),
			UseAgent:              getEnvAsBool("SSH_USE_AGENT", true),
		},
		Logging: LoggingConfig{
			Level:  getEnvAsString("LOG_LEVEL", "info"),
			Format: getEnvAsString("LOG_FORMAT", "text"),
		},
	}
}

// DescriptorPath is the descriptor file resolved against the project root.
func (c *Config) DescriptorPath() string {
	if filepath.IsAbs(c.Project.DescriptorFile) {
		return c.Project.DescriptorFile
	}
	return filepath.Join(c.Project.Root, c.Project.DescriptorFile)
}

func getEnvAsString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func workingDir() string {
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

func homePath(parts ...string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(append([]string{home}, parts...)...)
}
