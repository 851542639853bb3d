package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

const (
	// UserConfigDir is the directory for user-level config
	UserConfigDir = ".config/skosdoc"
	// UserConfigFile is the name of the user-level config file
	UserConfigFile = "config.yaml"
)

// ProjectConfigFiles are the project-level config names, in lookup order
var ProjectConfigFiles = []string{"skosdoc.yaml", "skosdoc.yml", "skosdoc.toml"}

// Environment variables applied after all config files
const (
	EnvConfluenceUser  = "SKOSDOC_CONFLUENCE_USER"
	EnvConfluenceToken = "SKOSDOC_CONFLUENCE_TOKEN"
	EnvNATSURL         = "SKOSDOC_NATS_URL"
	EnvInput           = "SKOS_INPUT_TTL"
	EnvOpenAIKey       = "OPENAI_API_KEY"
	EnvOpenAIModel     = "OPENAI_MODEL"
)

// Loader handles configuration loading with layered precedence
type Loader struct {
	logger *slog.Logger
	// dir is where the project config search starts (default: cwd)
	dir string
	// home overrides the user home directory
	home   string
	getenv func(string) string
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithDir starts the project config search in dir.
func WithDir(dir string) LoaderOption {
	return func(l *Loader) { l.dir = dir }
}

// WithHome overrides the user home directory.
func WithHome(home string) LoaderOption {
	return func(l *Loader) { l.home = home }
}

// WithEnv overrides environment lookup.
func WithEnv(getenv func(string) string) LoaderOption {
	return func(l *Loader) { l.getenv = getenv }
}

// NewLoader creates a new configuration loader
func NewLoader(logger *slog.Logger, opts ...LoaderOption) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Loader{logger: logger, getenv: os.Getenv}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load loads configuration with layered precedence:
// 1. Default config
// 2. User config (~/.config/skosdoc/config.yaml)
// 3. Project config (skosdoc.yaml|yml|toml in current or parent directories)
// 4. Explicit file, if path is non-empty
// 5. Environment variables
func (l *Loader) Load(path string) (*Config, error) {
	config := DefaultConfig()

	userConfigPath := l.userConfigPath()
	if userConfigPath != "" {
		if userConfig, err := LoadFromFile(userConfigPath); err == nil {
			l.logger.Debug("Loaded user config", slog.String("path", userConfigPath))
			config.Merge(userConfig)
		} else if !errors.Is(err, fs.ErrNotExist) {
			l.logger.Warn("Failed to load user config", slog.String("path", userConfigPath), slog.String("error", err.Error()))
		}
	}

	if projectConfigPath := l.findProjectConfig(); projectConfigPath != "" {
		if projectConfig, err := LoadFromFile(projectConfigPath); err == nil {
			l.logger.Debug("Loaded project config", slog.String("path", projectConfigPath))
			config.Merge(projectConfig)
		} else {
			l.logger.Warn("Failed to load project config", slog.String("path", projectConfigPath), slog.String("error", err.Error()))
		}
	} else {
		l.logger.Debug("No project config found")
	}

	if path != "" {
		explicit, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		config.Merge(explicit)
	}

	l.applyEnv(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (l *Loader) applyEnv(c *Config) {
	env := func(name string, dst *string) {
		if v := l.getenv(name); v != "" {
			*dst = v
			l.logger.Debug("Config from environment", slog.String("var", name))
		}
	}
	env(EnvConfluenceUser, &c.Confluence.User)
	env(EnvConfluenceToken, &c.Confluence.Token)
	env(EnvNATSURL, &c.NATS.URL)
	env(EnvOpenAIKey, &c.Model.APIKey)
	env(EnvOpenAIModel, &c.Model.Name)
	if v := l.getenv(EnvInput); v != "" && len(c.Source.Patterns) == 0 {
		c.Source.Patterns = []string{v}
	}
}

// EnsureUserConfig creates the user config file with defaults if it doesn't exist
func (l *Loader) EnsureUserConfig() error {
	userConfigPath := l.userConfigPath()

	if _, err := os.Stat(userConfigPath); err == nil {
		return nil
	}

	config := DefaultConfig()
	if err := config.SaveToFile(userConfigPath); err != nil {
		return err
	}

	l.logger.Info("Created default user config", slog.String("path", userConfigPath))
	return nil
}

// userConfigPath returns the path to the user config file
func (l *Loader) userConfigPath() string {
	home := l.home
	if home == "" {
		var err error
		if home, err = os.UserHomeDir(); err != nil {
			return ""
		}
	}
	return filepath.Join(home, UserConfigDir, UserConfigFile)
}

// findProjectConfig searches for a project config in the start directory and
// its parents
func (l *Loader) findProjectConfig() string {
	dir := l.dir
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return ""
		}
		dir = cwd
	}

	for {
		for _, name := range ProjectConfigFiles {
			configPath := filepath.Join(dir, name)
			if _, err := os.Stat(configPath); err == nil {
				return configPath
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}
