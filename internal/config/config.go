package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// MailConfig holds the IMAP server connection parameters.
type MailConfig struct {
	// Server is the IMAP host, optionally with a port (993 by default).
	Server string `mapstructure:"server" yaml:"server"`

	// MasterUser and MasterPassword form the delegated-auth credential:
	// the master account can log in as any mailbox owner.
	MasterUser     string `mapstructure:"master_user" yaml:"master_user"`
	MasterPassword string `mapstructure:"master_password" yaml:"master_password"`

	// TimeoutSec bounds every IMAP round trip.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// DatabaseConfig holds the blog store settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// AuthConfig holds token verification settings.
type AuthConfig struct {
	// JWTSecret verifies the HS256 tokens issued by the auth service.
	JWTSecret string `mapstructure:"jwt_secret" yaml:"jwt_secret"`
}

// MediaConfig holds image upload settings.
type MediaConfig struct {
	// UploadDir is where uploaded images are stored and served from.
	UploadDir string `mapstructure:"upload_dir" yaml:"upload_dir"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP bind address.
	Listen string `mapstructure:"listen" yaml:"listen"`

	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Mail     MailConfig     `mapstructure:"mail" yaml:"mail"`
	Auth     AuthConfig     `mapstructure:"auth" yaml:"auth"`
	Media    MediaConfig    `mapstructure:"media" yaml:"media"`
}

// Load reads configuration from the given YAML file path using Viper.
// Every key can be overridden through TILDA_-prefixed environment
// variables (e.g. TILDA_MAIL_MASTER_PASSWORD). A missing file is not an
// error; defaults and the environment still apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("TILDA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("listen", ":5000")
	v.SetDefault("database.path", "tilda.db")
	v.SetDefault("mail.timeout_sec", 30)
	v.SetDefault("media.upload_dir", "media")

	// Declare secret-bearing keys so environment-only values are picked
	// up by Unmarshal even without a config file.
	v.SetDefault("mail.server", "")
	v.SetDefault("mail.master_user", "")
	v.SetDefault("mail.master_password", "")
	v.SetDefault("auth.jwt_secret", "")

	if err := v.ReadInConfig(); err != nil {
		_, pathErr := err.(*os.PathError)
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !pathErr && !notFound {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Mail.Server == "" {
		return nil, fmt.Errorf("config %s: mail.server is required", path)
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("config %s: auth.jwt_secret is required", path)
	}

	return cfg, nil
}
