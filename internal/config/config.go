package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken    string `yaml:"bot_token"`
		OwnerChatID int64  `yaml:"owner_chat_id"`
		APIURL      string `yaml:"api_url"`
	} `yaml:"telegram"`
	Storage struct {
		DataDir     string `yaml:"data_dir"`
		ArchiveFile string `yaml:"archive_file"`
		SQLitePath  string `yaml:"sqlite_path"`
	} `yaml:"storage"`
	Schedule struct {
		RolloverCron    string `yaml:"rollover_cron"`
		Timezone        string `yaml:"timezone"`
		RolloverOnStart bool   `yaml:"rollover_on_start"`
	} `yaml:"schedule"`
	Buy struct {
		ConfirmTimeout time.Duration `yaml:"confirm_timeout"`
		CancelExpiry   time.Duration `yaml:"cancel_expiry"`
		ResultExpiry   time.Duration `yaml:"result_expiry"`
	} `yaml:"buy"`
	Chart struct {
		QuickChartURL string `yaml:"quickchart_url"`
		Width         int    `yaml:"width"`
		Height        int    `yaml:"height"`
	} `yaml:"chart"`
	Proxy string `yaml:"proxy"`
}

// envOverrides lists the variables that take precedence over the file.
// Unset variables leave the file value alone.
type envOverrides struct {
	BotToken        string        `envconfig:"TELEGRAM_BOT_TOKEN"`
	OwnerChatID     int64         `envconfig:"TELEGRAM_OWNER_CHAT_ID"`
	APIURL          string        `envconfig:"TELEGRAM_API_URL"`
	Proxy           string        `envconfig:"HTTPS_PROXY"`
	DataDir         string        `envconfig:"DATA_DIR"`
	ArchiveFile     string        `envconfig:"ARCHIVE_FILE"`
	SQLitePath      string        `envconfig:"SQLITE_PATH"`
	RolloverCron    string        `envconfig:"CRON_ROLLOVER"`
	Timezone        string        `envconfig:"TZ_ROLLOVER"`
	RolloverOnStart bool          `envconfig:"ROLLOVER_ON_START"`
	ConfirmTimeout  time.Duration `envconfig:"BUY_CONFIRM_TIMEOUT"`
	QuickChartURL   string        `envconfig:"QUICKCHART_URL"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	var env envOverrides
	if err := envconfig.Process("", &env); err != nil {
		return nil, fmt.Errorf("process env config: %w", err)
	}
	cfg.apply(&env)
	cfg.defaults()
	return cfg, nil
}

func (c *Config) apply(env *envOverrides) {
	setString(&c.Telegram.BotToken, env.BotToken)
	setString(&c.Telegram.APIURL, env.APIURL)
	setString(&c.Proxy, env.Proxy)
	setString(&c.Storage.DataDir, env.DataDir)
	setString(&c.Storage.ArchiveFile, env.ArchiveFile)
	setString(&c.Storage.SQLitePath, env.SQLitePath)
	setString(&c.Schedule.RolloverCron, env.RolloverCron)
	setString(&c.Schedule.Timezone, env.Timezone)
	setString(&c.Chart.QuickChartURL, env.QuickChartURL)
	if env.OwnerChatID != 0 {
		c.Telegram.OwnerChatID = env.OwnerChatID
	}
	if env.RolloverOnStart {
		c.Schedule.RolloverOnStart = true
	}
	if env.ConfirmTimeout != 0 {
		c.Buy.ConfirmTimeout = env.ConfirmTimeout
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func (c *Config) defaults() {
	if c.Telegram.APIURL == "" {
		c.Telegram.APIURL = "https://api.telegram.org"
	}
	if c.Storage.DataDir == "" {
		c.Storage.DataDir = "data/stonks"
	}
	if c.Storage.ArchiveFile == "" {
		c.Storage.ArchiveFile = "data/stonks/log"
	}
	if c.Schedule.RolloverCron == "" {
		c.Schedule.RolloverCron = "0 0 4 * * 0"
	}
	if c.Schedule.Timezone == "" {
		c.Schedule.Timezone = "Local"
	}
	if c.Buy.ConfirmTimeout == 0 {
		c.Buy.ConfirmTimeout = 300 * time.Second
	}
	if c.Buy.CancelExpiry == 0 {
		c.Buy.CancelExpiry = 60 * time.Second
	}
	if c.Buy.ResultExpiry == 0 {
		c.Buy.ResultExpiry = 600 * time.Second
	}
	if c.Chart.QuickChartURL == "" {
		c.Chart.QuickChartURL = "https://quickchart.io"
	}
	if c.Chart.Width == 0 {
		c.Chart.Width = 800
	}
	if c.Chart.Height == 0 {
		c.Chart.Height = 480
	}
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Buy.ConfirmTimeout <= 0 || c.Buy.CancelExpiry < 0 || c.Buy.ResultExpiry < 0 {
		return fmt.Errorf("buy timings must not be negative and confirm_timeout must be positive")
	}
	if c.Chart.Width <= 0 || c.Chart.Height <= 0 {
		return fmt.Errorf("chart.width and chart.height must be positive")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves schedule.timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return nil, fmt.Errorf("schedule.timezone: %w", err)
	}
	return loc, nil
}
