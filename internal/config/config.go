package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Ticker is a single watch-list entry.
type Ticker struct {
	Symbol      string `yaml:"symbol"`
	DisplayName string `yaml:"display_name"`
	Benchmark   bool   `yaml:"benchmark"` // benchmark-class instrument (ETF)
}

// Config holds all application configuration.
type Config struct {
	Watchlist []Ticker `yaml:"watchlist"`
	Market    struct {
		Benchmark string `yaml:"benchmark"`
	} `yaml:"market"`
	Reasoning struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
		Model   string `yaml:"model"`
	} `yaml:"reasoning"`
	Notify struct {
		Channel string `yaml:"channel"` // "mailgun" or "telegram"
		Mailgun struct {
			Domain  string `yaml:"domain"`
			SendKey string `yaml:"send_key"`
			From    string `yaml:"from"`
			To      string `yaml:"to"`
		} `yaml:"mailgun"`
		Telegram struct {
			BotToken string `yaml:"bot_token"`
			ChatID   string `yaml:"chat_id"`
		} `yaml:"telegram"`
	} `yaml:"notify"`
	Broker struct {
		BaseURL   string `yaml:"base_url"`
		APIKey    string `yaml:"api_key"`
		APISecret string `yaml:"api_secret"`
		TokenFile string `yaml:"token_file"`
	} `yaml:"broker"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Schedule struct {
		ScreenCron string `yaml:"screen_cron"`
	} `yaml:"schedule"`
	Proxy string `yaml:"proxy"`
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

	// Environment variable overrides
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.Reasoning.APIKey = v
	}
	if v := os.Getenv("MAILGUN_SEND_KEY"); v != "" {
		cfg.Notify.Mailgun.SendKey = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Notify.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Notify.Telegram.ChatID = v
	}
	if v := os.Getenv("SCHWAB_API_KEY"); v != "" {
		cfg.Broker.APIKey = v
	}
	if v := os.Getenv("SCHWAB_API_SECRET"); v != "" {
		cfg.Broker.APISecret = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("CRON_SCREEN"); v != "" {
		cfg.Schedule.ScreenCron = v
	}

	// Defaults
	if len(cfg.Watchlist) == 0 {
		cfg.Watchlist = []Ticker{
			{Symbol: "NFLX", DisplayName: "Netflix"},
			{Symbol: "QTUM", DisplayName: "Defiance Quantum ETF", Benchmark: true},
			{Symbol: "AAPL", DisplayName: "Apple"},
			{Symbol: "GOOG", DisplayName: "Alphabet"},
			{Symbol: "BRK-B", DisplayName: "Berkshire Hathaway"},
			{Symbol: "COST", DisplayName: "Costco"},
			{Symbol: "WMT", DisplayName: "Walmart"},
		}
	}
	if cfg.Market.Benchmark == "" {
		cfg.Market.Benchmark = "SPY"
	}
	if cfg.Reasoning.BaseURL == "" {
		cfg.Reasoning.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if cfg.Reasoning.Model == "" {
		cfg.Reasoning.Model = "gemini-2.5-flash"
	}
	if cfg.Notify.Channel == "" {
		cfg.Notify.Channel = "mailgun"
	}
	if cfg.Broker.BaseURL == "" {
		cfg.Broker.BaseURL = "https://api.schwabapi.com"
	}
	if cfg.Broker.TokenFile == "" {
		cfg.Broker.TokenFile = "data/schwab_refresh_token.txt"
	}
	if cfg.Schedule.ScreenCron == "" {
		// Every 30 minutes during US market hours, Mon-Fri
		cfg.Schedule.ScreenCron = "0 */30 9-16 * * 1-5"
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if len(c.Watchlist) == 0 {
		return fmt.Errorf("watchlist must not be empty")
	}
	for _, t := range c.Watchlist {
		if t.Symbol == "" {
			return fmt.Errorf("watchlist entries require a symbol")
		}
	}
	if c.Market.Benchmark == "" {
		return fmt.Errorf("market.benchmark is required")
	}
	if c.Reasoning.APIKey == "" {
		return fmt.Errorf("reasoning.api_key is required")
	}
	switch c.Notify.Channel {
	case "mailgun":
		if c.Notify.Mailgun.Domain == "" || c.Notify.Mailgun.SendKey == "" {
			return fmt.Errorf("notify.mailgun.domain and send_key are required")
		}
		if c.Notify.Mailgun.To == "" {
			return fmt.Errorf("notify.mailgun.to is required")
		}
	case "telegram":
		if c.Notify.Telegram.BotToken == "" || c.Notify.Telegram.ChatID == "" {
			return fmt.Errorf("notify.telegram.bot_token and chat_id are required")
		}
	default:
		return fmt.Errorf("notify.channel must be mailgun or telegram")
	}
	return nil
}
