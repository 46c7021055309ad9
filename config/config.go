package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

const keyEnv = "ENV"
const envLocal = "local"

const (
	defaultExtractTimeout     = 2 * time.Minute
	defaultProgressBufferSize = 64
	defaultProgressTimeout    = 5 * time.Second
)

type Config struct {
	config *viper.Viper
}

func Load() (*Config, error) {

	env := os.Getenv(keyEnv)
	if len(env) == 0 {
		env = envLocal
	}

	configPath, err := getConfigPath(env)

	viperConfig := viper.New()
	if err == nil {
		viperConfig.SetConfigFile(configPath)
		if err := viperConfig.ReadInConfig(); err != nil {
			slog.Warn(fmt.Sprintf("error reading config file, %s", err))
		}
	}
	viperConfig.AutomaticEnv()

	cfg := &Config{
		config: viperConfig,
	}

	return cfg, nil
}

func (c *Config) GetPort() string {
	port := c.config.GetString("PORT")
	if len(port) == 0 {
		port = c.config.GetString("server.port")
	}

	return port
}

func (c *Config) GetMetaDBPath() string {
	metaDBPath := c.config.GetString("METADB_PATH")
	if len(metaDBPath) == 0 {
		metaDBPath = c.config.GetString("database.metadb_path")
	}

	return metaDBPath
}

func (c *Config) GetIndexPath() string {
	indexPath := c.config.GetString("INDEX_PATH")
	if len(indexPath) == 0 {
		indexPath = c.config.GetString("database.index_path")
	}

	return indexPath
}

func (c *Config) GetStoragePath() string {
	storagePath := c.config.GetString("STORAGE_PATH")
	if len(storagePath) == 0 {
		storagePath = c.config.GetString("database.storage_path")
	}

	return storagePath
}

// GetExtractScriptDir is the directory holding the external per-format
// extractor scripts (parse_pdf.py and friends).
func (c *Config) GetExtractScriptDir() string {
	scriptDir := c.config.GetString("EXTRACT_SCRIPT_DIR")
	if len(scriptDir) == 0 {
		scriptDir = c.config.GetString("extract.script_dir")
	}

	return scriptDir
}

func (c *Config) GetExtractCommand() string {
	command := c.config.GetString("EXTRACT_COMMAND")
	if len(command) == 0 {
		command = c.config.GetString("extract.command")
	}
	if len(command) == 0 {
		command = "python3"
	}

	return command
}

func (c *Config) GetExtractTimeout() time.Duration {
	seconds := c.config.GetInt("EXTRACT_TIMEOUT_SECONDS")
	if seconds == 0 {
		seconds = c.config.GetInt("extract.timeout_seconds")
	}
	if seconds == 0 {
		return defaultExtractTimeout
	}

	return time.Duration(seconds) * time.Second
}

// GetVerifyUnchanged reports whether files whose size and mtime match the
// stored record should still be re-fingerprinted before being classified
// unchanged.
func (c *Config) GetVerifyUnchanged() bool {
	if c.config.IsSet("VERIFY_UNCHANGED") {
		return c.config.GetBool("VERIFY_UNCHANGED")
	}

	return c.config.GetBool("index.verify_unchanged")
}

func (c *Config) GetProgressBufferSize() int {
	size := c.config.GetInt("PROGRESS_BUFFER_SIZE")
	if size == 0 {
		size = c.config.GetInt("progress.buffer_size")
	}
	if size == 0 {
		size = defaultProgressBufferSize
	}

	return size
}

func (c *Config) GetProgressTimeout() time.Duration {
	seconds := c.config.GetInt("PROGRESS_TIMEOUT_SECONDS")
	if seconds == 0 {
		seconds = c.config.GetInt("progress.timeout_seconds")
	}
	if seconds == 0 {
		return defaultProgressTimeout
	}

	return time.Duration(seconds) * time.Second
}

func getProjectRoot() (string, error) {
	currentDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current working directory: %w", err)
	}

	for {
		configDir := filepath.Join(currentDir, "config")
		if info, err := os.Stat(configDir); err == nil && info.IsDir() {
			return currentDir, nil
		}

		parent := filepath.Dir(currentDir)

		if parent == currentDir {
			break
		}

		currentDir = parent
	}

	return "", fmt.Errorf("could not find project root (directory containing 'config' folder)")
}

func getConfigPath(env string) (string, error) {
	configFile := fmt.Sprintf("config.%s.yaml", env)

	projectRoot, err := getProjectRoot()
	if err != nil {
		slog.Warn("failed to find project root with config directory, will use environment variables instead", "err", err.Error())
		return "", fmt.Errorf("failed to find project root: %w", err)
	}
	configPath := filepath.Join(projectRoot, "config", configFile)
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		slog.Warn("failed to find config file within config directory, will use environment variables instead", "err", err.Error())
		return "", fmt.Errorf("config file does not exist: %s", configPath)
	}

	return configPath, nil
}
