// Package config loads the device web interface configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Extra-Chill/astra-web/internal/page"
)

var envVarRegex = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Config is the on-disk configuration file.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Files    FilesConfig    `yaml:"files"`
	Settings SettingsConfig `yaml:"settings"`
	Page     PageConfig     `yaml:"page"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
	AdminUser    string        `yaml:"admin_user"`
	// AdminPasswordHash is a bcrypt hash. Empty leaves POST /upload open.
	AdminPasswordHash string `yaml:"admin_password_hash"`
}

// FilesConfig points at the directory listed on the file page.
type FilesConfig struct {
	Dir string `yaml:"dir"`
}

// SettingsConfig points at the persisted device settings.
type SettingsConfig struct {
	Path string `yaml:"path"`
}

// PageConfig configures the shared page layout.
type PageConfig struct {
	Title      string          `yaml:"title"`
	Heading    string          `yaml:"heading"`
	Viewport   string          `yaml:"viewport"`
	MaxSize    *int            `yaml:"max_size,omitempty"` // nil = page.DefaultMaxSize, 0 = unlimited
	Nav        page.Menu       `yaml:"nav"`
	Stylesheet page.Stylesheet `yaml:"stylesheet"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":80",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
			AdminUser:    "admin",
		},
		Files:    FilesConfig{Dir: "data"},
		Settings: SettingsConfig{Path: "device.yaml"},
		Page: PageConfig{
			Title:      page.DefaultTitle,
			Heading:    page.DefaultHeading,
			Viewport:   page.DefaultViewport,
			Nav:        page.DefaultMenu(),
			Stylesheet: page.DefaultStylesheet(),
		},
	}
}

// Load reads a YAML config file, substituting ${VAR} references from the environment.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML bytes over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	content := envVarRegex.ReplaceAllStringFunc(string(data), func(match string) string {
		varName := match[2 : len(match)-1]
		if value := os.Getenv(varName); value != "" {
			return value
		}
		return match
	})

	cfg := Default()
	if err := yaml.Unmarshal([]byte(content), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Server.Addr) == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 || c.Server.IdleTimeout < 0 {
		errs = append(errs, errors.New("server timeouts must not be negative"))
	}
	if c.Server.AdminPasswordHash != "" && c.Server.AdminUser == "" {
		errs = append(errs, errors.New("server.admin_user is required when admin_password_hash is set"))
	}
	if c.Files.Dir == "" {
		errs = append(errs, errors.New("files.dir is required"))
	}
	if c.Settings.Path == "" {
		errs = append(errs, errors.New("settings.path is required"))
	}
	if c.Page.MaxSize != nil && *c.Page.MaxSize < 0 {
		errs = append(errs, errors.New("page.max_size must not be negative"))
	}
	for i, item := range c.Page.Nav {
		if item.Label == "" {
			errs = append(errs, fmt.Errorf("page.nav[%d]: label is required", i))
		}
		if !strings.HasPrefix(item.Path, "/") {
			errs = append(errs, fmt.Errorf("page.nav[%d]: path %q must start with /", i, item.Path))
		}
	}
	for _, r := range c.Page.Stylesheet {
		if strings.TrimSpace(r.Selector) == "" {
			errs = append(errs, errors.New("page.stylesheet: empty selector"))
			break
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Layout builds the page layout described by the config.
func (c *Config) Layout() *page.Layout {
	opts := []page.Option{
		page.WithMenu(c.Page.Nav),
		page.WithStylesheet(c.Page.Stylesheet),
	}
	if c.Page.Title != "" {
		opts = append(opts, page.WithTitle(c.Page.Title))
	}
	if c.Page.Heading != "" {
		opts = append(opts, page.WithHeading(c.Page.Heading))
	}
	if c.Page.Viewport != "" {
		opts = append(opts, page.WithViewport(c.Page.Viewport))
	}
	if c.Page.MaxSize != nil {
		opts = append(opts, page.WithMaxSize(*c.Page.MaxSize))
	}
	return page.NewLayout(opts...)
}
