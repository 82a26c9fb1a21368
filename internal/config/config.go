package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime string
}

type AuthConfig struct {
	AccessSecret  string
	AccessTTL     time.Duration
	InviteTTL     time.Duration
	InviteBaseURL string
	BcryptCost    int
}

type ProposalConfig struct {
	Author         string
	Debounce       time.Duration
	SavedReset     time.Duration
	ShareLinkTTL   time.Duration
	SessionIdleTTL time.Duration
}

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string
}

func (s StorageConfig) Enabled() bool {
	return s.Endpoint != "" && s.Bucket != ""
}

type ExportConfig struct {
	PandocPath string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func (s SMTPConfig) Enabled() bool {
	return s.Host != "" && s.From != ""
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	Proposal    ProposalConfig
	Storage     StorageConfig
	Export      ExportConfig
	SMTP        SMTPConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")
	v.AutomaticEnv()

	_ = v.ReadInConfig()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host:           v.GetString("HTTP_HOST"),
			Port:           v.GetInt("HTTP_PORT"),
			AllowedOrigins: parseList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetString("DB_CONN_MAX_LIFETIME"),
		},
		Auth: AuthConfig{
			AccessSecret:  v.GetString("JWT_ACCESS_SECRET"),
			AccessTTL:     v.GetDuration("JWT_ACCESS_TTL"),
			InviteTTL:     v.GetDuration("INVITE_TTL"),
			InviteBaseURL: v.GetString("INVITE_BASE_URL"),
			BcryptCost:    v.GetInt("BCRYPT_COST"),
		},
		Proposal: ProposalConfig{
			Author:         v.GetString("PROPOSAL_AUTHOR"),
			Debounce:       v.GetDuration("AUTOSAVE_DEBOUNCE"),
			SavedReset:     v.GetDuration("AUTOSAVE_SAVED_RESET"),
			ShareLinkTTL:   v.GetDuration("SHARE_LINK_TTL"),
			SessionIdleTTL: v.GetDuration("SESSION_IDLE_TTL"),
		},
		Storage: StorageConfig{
			Endpoint:  v.GetString("STORAGE_ENDPOINT"),
			AccessKey: v.GetString("STORAGE_ACCESS_KEY"),
			SecretKey: v.GetString("STORAGE_SECRET_KEY"),
			Bucket:    v.GetString("STORAGE_BUCKET"),
			UseSSL:    v.GetBool("STORAGE_USE_SSL"),
			PublicURL: v.GetString("STORAGE_PUBLIC_URL"),
		},
		Export: ExportConfig{
			PandocPath: v.GetString("PANDOC_PATH"),
		},
		SMTP: SMTPConfig{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			Username: v.GetString("SMTP_USERNAME"),
			Password: v.GetString("SMTP_PASSWORD"),
			From:     v.GetString("SMTP_FROM"),
		},
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 7090
	}
	if len(cfg.HTTP.AllowedOrigins) == 0 {
		cfg.HTTP.AllowedOrigins = []string{"*"}
	}
	if cfg.Auth.AccessTTL == 0 {
		cfg.Auth.AccessTTL = 12 * time.Hour
	}
	if cfg.Auth.InviteTTL == 0 {
		cfg.Auth.InviteTTL = 72 * time.Hour
	}
	if cfg.Auth.BcryptCost == 0 {
		cfg.Auth.BcryptCost = 12
	}
	if cfg.Proposal.Author == "" {
		cfg.Proposal.Author = "system"
	}
	if cfg.Proposal.Debounce == 0 {
		cfg.Proposal.Debounce = 2 * time.Second
	}
	if cfg.Proposal.SavedReset == 0 {
		cfg.Proposal.SavedReset = 1500 * time.Millisecond
	}
	if cfg.Proposal.SessionIdleTTL <= 0 {
		cfg.Proposal.SessionIdleTTL = 30 * time.Minute
	}
	if cfg.Export.PandocPath == "" {
		cfg.Export.PandocPath = "pandoc"
	}
	if cfg.SMTP.Port == 0 {
		cfg.SMTP.Port = 587
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.Proposal.Debounce < 0 || cfg.Proposal.SavedReset < 0 {
		return fmt.Errorf("autosave durations must not be negative")
	}
	if cfg.Auth.BcryptCost < 4 || cfg.Auth.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31")
	}
	return nil
}

func parseList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	items := strings.Split(raw, ",")
	result := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			result = append(result, item)
		}
	}
	return result
}
