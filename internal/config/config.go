package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// FundConfig describes the inputs of one fund.
type FundConfig struct {
	Name          string `yaml:"name" validate:"required,excludesall=/\\"` // output file prefix
	HoldingsPath  string `yaml:"holdings_path" validate:"required"`
	HoldingsSheet string `yaml:"holdings_sheet"` // xlsx only; first sheet when empty
	HasAmount     *bool  `yaml:"has_amount"`
	PricesPath    string `yaml:"prices_path" validate:"required_without=PriceSymbol"`
	PriceSymbol   string `yaml:"price_symbol"` // fetch monthly closes from Yahoo when PricesPath is empty
}

// AmountColumn reports whether the holdings source carries an amount column.
func (f FundConfig) AmountColumn() bool {
	return f.HasAmount == nil || *f.HasAmount
}

// Config holds all application configuration.
type Config struct {
	Funds  []FundConfig `yaml:"funds" validate:"required,min=1,dive"`
	Period struct {
		Start string `yaml:"start"`
		End   string `yaml:"end"`
	} `yaml:"period"`
	Holdings struct {
		TopN         int      `yaml:"top_n" validate:"min=1"`
		SentinelCode string   `yaml:"sentinel_code"`
		SkipRows     *int     `yaml:"skip_rows" validate:"omitempty,min=0"` // lines before the header row
		Encodings    []string `yaml:"encodings"`
	} `yaml:"holdings"`
	Output struct {
		Dir string `yaml:"dir"`
	} `yaml:"output"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Schedule struct {
		Cron string `yaml:"cron"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token" validate:"required_with=ChatID"`
		ChatID   string `yaml:"chat_id" validate:"required_with=BotToken"`
	} `yaml:"telegram"`
	Workers   int    `yaml:"workers" validate:"min=1"`
	StateFile string `yaml:"state_file"`
	Proxy     string `yaml:"proxy"`
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
	if err := applyEnv(cfg); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}

	// Defaults
	if cfg.Period.Start == "" {
		cfg.Period.Start = "2016/02"
	}
	if cfg.Period.End == "" {
		cfg.Period.End = "2025/02"
	}
	if cfg.Holdings.TopN == 0 {
		cfg.Holdings.TopN = 10
	}
	if cfg.Holdings.SentinelCode == "" {
		cfg.Holdings.SentinelCode = "TT99"
	}
	if cfg.Holdings.SkipRows == nil {
		skip := 1
		cfg.Holdings.SkipRows = &skip
	}
	if len(cfg.Holdings.Encodings) == 0 {
		cfg.Holdings.Encodings = []string{"utf-8-sig", "utf-8", "big5", "cp950"}
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "output"
	}
	if cfg.Workers == 0 {
		cfg.Workers = 4
	}
	if cfg.StateFile == "" {
		cfg.StateFile = "data/run_state.json"
	}

	return cfg, nil
}

// envOverrides lists the environment variables that override the file. A nil
// field means the variable is unset.
type envOverrides struct {
	PeriodStart *string `envconfig:"PERIOD_START"`
	PeriodEnd   *string `envconfig:"PERIOD_END"`
	TopN        *int    `envconfig:"TOP_N"`
	OutputDir   *string `envconfig:"OUTPUT_DIR"`
	SQLitePath  *string `envconfig:"SQLITE_PATH"`
	Cron        *string `envconfig:"SCHEDULE_CRON"`
	BotToken    *string `envconfig:"TELEGRAM_BOT_TOKEN"`
	ChatID      *string `envconfig:"TELEGRAM_CHAT_ID"`
	Proxy       *string `envconfig:"HTTPS_PROXY"`
	Workers     *int    `envconfig:"WORKERS"`
}

func applyEnv(cfg *Config) error {
	var env envOverrides
	if err := envconfig.Process("", &env); err != nil {
		return err
	}
	setString(&cfg.Period.Start, env.PeriodStart)
	setString(&cfg.Period.End, env.PeriodEnd)
	setString(&cfg.Output.Dir, env.OutputDir)
	setString(&cfg.Database.SQLitePath, env.SQLitePath)
	setString(&cfg.Schedule.Cron, env.Cron)
	setString(&cfg.Telegram.BotToken, env.BotToken)
	setString(&cfg.Telegram.ChatID, env.ChatID)
	setString(&cfg.Proxy, env.Proxy)
	if env.TopN != nil {
		cfg.Holdings.TopN = *env.TopN
	}
	if env.Workers != nil {
		cfg.Workers = *env.Workers
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil && *v != "" {
		*dst = *v
	}
}
