package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"badgeforge/qr"
	"badgeforge/render"
	"badgeforge/session"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const envPrefix = "badgeforge"

type QRConfig struct {
	Level        string `yaml:"level"`
	BoxSize      int    `yaml:"boxSize"      split_words:"true"`
	Border       int    `yaml:"border"`
	MaxVersion   int    `yaml:"maxVersion"   split_words:"true"`
	DisplaySize  int    `yaml:"displaySize"  split_words:"true"`
	LinkTemplate string `yaml:"linkTemplate" split_words:"true"`
}

type Config struct {
	BindAddr        string            `yaml:"bindAddr"        split_words:"true"`
	Port            uint              `yaml:"port"`
	Debug           bool              `yaml:"debug"`
	Layout          string            `yaml:"layout"`
	CatalogFile     string            `yaml:"catalogFile"     split_words:"true"`
	CatalogDatabase string            `yaml:"catalogDatabase" split_words:"true"`
	SessionTTL      time.Duration     `yaml:"sessionTTL"      envconfig:"SESSION_TTL"`
	MaxArtifacts    int               `yaml:"maxArtifacts"    split_words:"true"`
	PDFEnabled      bool              `yaml:"pdfEnabled"      envconfig:"PDF_ENABLED"`
	Fonts           render.FontConfig `yaml:"fonts"`
	QR              QRConfig          `yaml:"qr"`
}

func Default() *Config {
	return &Config{
		BindAddr:     "0.0.0.0",
		Port:         3000,
		Layout:       string(render.LayoutHTMLCertificate),
		SessionTTL:   session.DefaultTTL,
		MaxArtifacts: session.DefaultMaxIssued,
		PDFEnabled:   true,
		Fonts:        render.DefaultFontConfig(),
		QR: QRConfig{
			Level:       qr.DefaultLevel,
			BoxSize:     qr.DefaultBoxSize,
			Border:      qr.DefaultBorder,
			MaxVersion:  qr.DefaultMaxVersion,
			DisplaySize: render.DefaultQRDisplaySize,
		},
	}
}

// Load builds the configuration from defaults, then the YAML file, then
// BADGEFORGE_* environment variables. With no configFile the user and system
// locations are tried.
func Load(configFile string) (*Config, error) {
	cfg := Default()

	if configFile == "" {
		configFile = findConfigFile()
	}
	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findConfigFile() string {
	if homeDir, err := os.UserHomeDir(); err == nil {
		userPath := filepath.Join(homeDir, ".badgeforge", "badgeforge.yaml")
		if _, err := os.Stat(userPath); err == nil {
			return userPath
		}
	}
	systemPath := "/etc/badgeforge/badgeforge.yaml"
	if _, err := os.Stat(systemPath); err == nil {
		return systemPath
	}
	return ""
}

func (c *Config) Validate() error {
	var errs []error
	if _, err := render.ParseLayout(c.Layout); err != nil {
		errs = append(errs, err)
	}
	if _, err := qr.ParseLevel(c.QR.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Port == 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %d", c.Port))
	}
	if c.QR.BoxSize < 1 {
		errs = append(errs, fmt.Errorf("qr.boxSize must be positive, got %d", c.QR.BoxSize))
	}
	if c.QR.Border < 1 {
		errs = append(errs, fmt.Errorf("qr.border must be at least 1, got %d", c.QR.Border))
	}
	if c.QR.MaxVersion < 1 || c.QR.MaxVersion > 40 {
		errs = append(errs, fmt.Errorf("qr.maxVersion must be within 1-40, got %d", c.QR.MaxVersion))
	}
	if c.QR.DisplaySize < 1 {
		errs = append(errs, fmt.Errorf("qr.displaySize must be positive, got %d", c.QR.DisplaySize))
	}
	if c.QR.LinkTemplate != "" && strings.Count(c.QR.LinkTemplate, "%s") != 1 {
		errs = append(errs, errors.New("qr.linkTemplate must contain exactly one %s"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, fmt.Errorf("sessionTTL must be positive, got %s", c.SessionTTL))
	}
	if c.MaxArtifacts < 1 {
		errs = append(errs, fmt.Errorf("maxArtifacts must be positive, got %d", c.MaxArtifacts))
	}
	if c.CatalogFile != "" && c.CatalogDatabase != "" {
		errs = append(errs, errors.New("catalogFile and catalogDatabase are mutually exclusive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func (c *Config) Addr() string {
	return net.JoinHostPort(c.BindAddr, strconv.FormatUint(uint64(c.Port), 10))
}
