package store

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Sandbox  bool `yaml:"sandbox"`
	Exchange struct {
		BaseURL string `yaml:"base_url"`
	} `yaml:"exchange"`
	Trading struct {
		Pairs           []string `yaml:"pairs"`
		IntervalSeconds int      `yaml:"interval_seconds"`
		Currency        string   `yaml:"currency"`
		MarginMode      string   `yaml:"margin_mode"`
		CandleBar       string   `yaml:"candle_bar"`
		CandleLimit     int      `yaml:"candle_limit"`
	} `yaml:"trading"`
	LLM struct {
		BaseURL     string  `yaml:"base_url"`
		Model       string  `yaml:"model"`
		Temperature float64 `yaml:"temperature"`
		MaxTokens   int     `yaml:"max_tokens"`
		System      string  `yaml:"system"`
	} `yaml:"llm"`
	PromptPath string `yaml:"prompt_path"`
	Retry      struct {
		MaxAttempts int `yaml:"max_attempts"`
	} `yaml:"retry"`
}

func (c *Config) Validate() error {
	if len(c.Trading.Pairs) == 0 {
		return errors.New("trading.pairs cannot be empty")
	}
	if c.Trading.IntervalSeconds <= 0 {
		return fmt.Errorf("trading.interval_seconds must be positive, got %d", c.Trading.IntervalSeconds)
	}
	if c.Trading.MarginMode != "isolated" && c.Trading.MarginMode != "cross" {
		return fmt.Errorf("trading.margin_mode must be 'isolated' or 'cross', got '%s'", c.Trading.MarginMode)
	}
	if c.LLM.Model == "" {
		return errors.New("llm.model cannot be empty")
	}
	return nil
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	if c.Exchange.BaseURL == "" {
		c.Exchange.BaseURL = "https://www.okx.com"
	}
	if c.Trading.IntervalSeconds == 0 {
		c.Trading.IntervalSeconds = 3600
	}
	if c.Trading.Currency == "" {
		c.Trading.Currency = "USDT"
	}
	if c.Trading.MarginMode == "" {
		c.Trading.MarginMode = "isolated"
	}
	if c.Trading.CandleBar == "" {
		c.Trading.CandleBar = "1D"
	}
	if c.Trading.CandleLimit == 0 {
		c.Trading.CandleLimit = 30
	}
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = "https://api.openai.com/v1"
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 4096
	}
	if c.PromptPath == "" {
		c.PromptPath = "prompt.tmpl"
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = 5
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &c, nil
}
