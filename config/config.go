package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v2"
)

// SysConfig holds process-level settings.
type SysConfig struct {
	Appid    string `yaml:"appid" json:"appid"`
	Location string `yaml:"location" json:"location"`
	Workdir  string `yaml:"workdir" json:"workdir"`
	Debug    bool   `yaml:"debug" json:"debug"`
}

// WebConfig holds the operator-facing web server settings.
type WebConfig struct {
	Host string `yaml:"host" json:"host"`
	Port int    `yaml:"port" json:"port"`
}

// DBConfig holds database connection settings.
type DBConfig struct {
	Type     string `yaml:"type" json:"type"`
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Name     string `yaml:"name" json:"name"`
	User     string `yaml:"user" json:"user"`
	Passwd   string `yaml:"passwd" json:"passwd"`
	MaxConn  int    `yaml:"max_conn" json:"max_conn"`
	IdleConn int    `yaml:"idle_conn" json:"idle_conn"`
}

// LoggerConfig controls zap output.
type LoggerConfig struct {
	Mode       string `yaml:"mode" json:"mode"`
	FileEnable bool   `yaml:"file_enable" json:"file_enable"`
	Filename   string `yaml:"filename" json:"filename"`
}

// GatewayConfig controls session and bulk-send behavior.
type GatewayConfig struct {
	// SessionsDir is the root directory for per-session transport state,
	// one subdirectory per session id. Owned entirely by the transport.
	SessionsDir string `yaml:"sessions_dir" json:"sessions_dir"`
	// CanonicalSuffix is appended to bare numeric recipients to form a
	// routable direct address.
	CanonicalSuffix string `yaml:"canonical_suffix" json:"canonical_suffix"`
	// BulkSendInterval is the fixed pacing delay between bulk recipients.
	// Deliberately constant, not adaptive; tests inject zero.
	BulkSendInterval time.Duration `yaml:"bulk_send_interval" json:"bulk_send_interval"`
	// PrintQR dumps pairing QR codes to the terminal in addition to
	// broadcasting them to observers.
	PrintQR bool `yaml:"print_qr" json:"print_qr"`
}

// CrmConfig points at the external CRM lookup service.
type CrmConfig struct {
	Endpoint    string        `yaml:"endpoint" json:"endpoint"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`
	BearerToken string        `yaml:"bearer_token" json:"bearer_token"`
	RefreshSpec string        `yaml:"refresh_spec" json:"refresh_spec"`
}

type AppConfig struct {
	System   SysConfig     `yaml:"system" json:"system"`
	Web      WebConfig     `yaml:"web" json:"web"`
	Database DBConfig      `yaml:"database" json:"database"`
	Logger   LoggerConfig  `yaml:"logger" json:"logger"`
	Gateway  GatewayConfig `yaml:"gateway" json:"gateway"`
	Crm      CrmConfig     `yaml:"crm" json:"crm"`
}

var DefaultAppConfig = &AppConfig{
	System: SysConfig{
		Appid:    "BotGate",
		Location: "Asia/Jakarta",
		Workdir:  "/var/botgate",
		Debug:    true,
	},
	Web: WebConfig{
		Host: "0.0.0.0",
		Port: 3000,
	},
	Database: DBConfig{
		Type:     "sqlite",
		Host:     "127.0.0.1",
		Port:     5432,
		Name:     "botgate",
		User:     "postgres",
		Passwd:   "",
		MaxConn:  100,
		IdleConn: 10,
	},
	Logger: LoggerConfig{
		Mode:       "development",
		FileEnable: true,
		Filename:   "/var/botgate/botgate.log",
	},
	Gateway: GatewayConfig{
		SessionsDir:      "/var/botgate/sessions",
		CanonicalSuffix:  "@c.us",
		BulkSendInterval: time.Second,
		PrintQR:          false,
	},
	Crm: CrmConfig{
		Endpoint:    "http://127.0.0.1:8080",
		Timeout:     5 * time.Second,
		BearerToken: "",
		RefreshSpec: "@every 300s",
	},
}

func setEnvValue(name string, f func(v string)) {
	if v := os.Getenv(name); v != "" {
		f(v)
	}
}

// LoadConfig reads the YAML config file (if present) and applies
// BOTGATE_* environment overrides on top.
func LoadConfig(cfile string) *AppConfig {
	cfg := DefaultAppConfig
	if cfile != "" {
		if data, err := os.ReadFile(cfile); err == nil {
			_ = yaml.Unmarshal(data, cfg)
		}
	}

	setEnvValue("BOTGATE_SYSTEM_WORKDIR", func(v string) { cfg.System.Workdir = v })
	setEnvValue("BOTGATE_SYSTEM_DEBUG", func(v string) { cfg.System.Debug = cast.ToBool(v) })
	setEnvValue("BOTGATE_WEB_HOST", func(v string) { cfg.Web.Host = v })
	setEnvValue("BOTGATE_WEB_PORT", func(v string) { cfg.Web.Port = cast.ToInt(v) })
	setEnvValue("BOTGATE_DB_TYPE", func(v string) { cfg.Database.Type = v })
	setEnvValue("BOTGATE_DB_HOST", func(v string) { cfg.Database.Host = v })
	setEnvValue("BOTGATE_DB_PORT", func(v string) { cfg.Database.Port = cast.ToInt(v) })
	setEnvValue("BOTGATE_DB_NAME", func(v string) { cfg.Database.Name = v })
	setEnvValue("BOTGATE_DB_USER", func(v string) { cfg.Database.User = v })
	setEnvValue("BOTGATE_DB_PWD", func(v string) { cfg.Database.Passwd = v })
	setEnvValue("BOTGATE_LOGGER_MODE", func(v string) { cfg.Logger.Mode = v })
	setEnvValue("BOTGATE_SESSIONS_DIR", func(v string) { cfg.Gateway.SessionsDir = v })
	setEnvValue("BOTGATE_BULK_INTERVAL", func(v string) { cfg.Gateway.BulkSendInterval = cast.ToDuration(v) })
	setEnvValue("BOTGATE_CRM_ENDPOINT", func(v string) { cfg.Crm.Endpoint = v })
	setEnvValue("BOTGATE_CRM_TOKEN", func(v string) { cfg.Crm.BearerToken = v })

	if cfg.Gateway.SessionsDir == "" {
		cfg.Gateway.SessionsDir = filepath.Join(cfg.System.Workdir, "sessions")
	}
	if cfg.Gateway.CanonicalSuffix == "" {
		cfg.Gateway.CanonicalSuffix = "@c.us"
	}
	if cfg.Crm.Timeout <= 0 {
		cfg.Crm.Timeout = 5 * time.Second
	}
	return cfg
}
