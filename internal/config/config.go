package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	JWT       JWTConfig       `yaml:"jwt"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	LLM       LLMConfig       `yaml:"llm"`
	Voice     VoiceConfig     `yaml:"voice"`
	Interview InterviewConfig `yaml:"interview"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
	Mode string `yaml:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite, mysql, postgres
	DSN    string `yaml:"dsn"`
}

type JWTConfig struct {
	Secret     string `yaml:"secret"`
	ExpireHour int    `yaml:"expire_hour"`
}

// DashboardConfig configures hiring-manager dashboard access.
type DashboardConfig struct {
	Password string `yaml:"password"`
}

// LLMConfig configures the scoring/analysis provider.
type LLMConfig struct {
	Provider string `yaml:"provider"` // gemini, openai, anthropic
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"` // OpenAI-compatible endpoints only
	Model    string `yaml:"model"`
}

// VoiceConfig configures the ElevenLabs conversational agent.
type VoiceConfig struct {
	APIKey  string `yaml:"api_key"`
	AgentID string `yaml:"agent_id"`
	BaseURL string `yaml:"base_url"`
}

// InterviewConfig holds session lifecycle policy knobs.
type InterviewConfig struct {
	// Minimum connected time before a non-user disconnect counts as a
	// completed interview rather than a dropped connection.
	MinLiveDuration time.Duration `yaml:"min_live_duration"`
	// Upper bound on the client-side finalization wait.
	FinalizeTimeout time.Duration `yaml:"finalize_timeout"`
	// Upper bound on the voice-session close wait.
	EndTimeout time.Duration `yaml:"end_timeout"`
	// Dropped-call restarts a candidate may attempt before the room
	// stops prompting for a retry. Zero means prompt forever.
	MaxResumeAttempts int `yaml:"max_resume_attempts"`
	// Auto-complete candidates stuck in interviewing. Zero disables
	// the reaper entirely.
	StaleAfter time.Duration `yaml:"stale_after"`
	// Cron spec for the stale-interview sweep.
	ReaperSchedule string `yaml:"reaper_schedule"`
}

// Quota is a per-client-IP token bucket budget.
type Quota struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// RateLimitConfig holds the quotas for the unauthenticated surfaces.
// The webhook quota absorbs provider redeliveries; the voice quota
// covers the interview room's token and signed-URL fetches.
type RateLimitConfig struct {
	Webhook Quota `yaml:"webhook"`
	Voice   Quota `yaml:"voice"`
}

var GlobalConfig *Config

func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	var cfg *Config

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg = DefaultConfig()
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}

		var fileCfg Config
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, err
		}
		cfg = &fileCfg
	}

	cfg.applyDefaults()
	cfg.overrideFromEnv()
	GlobalConfig = cfg
	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: "8080",
			Mode: "debug",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "spectra.db",
		},
		JWT: JWTConfig{
			Secret:     "spectra-secret-key-change-in-production",
			ExpireHour: 24,
		},
		LLM: LLMConfig{
			Provider: "gemini",
			Model:    "gemini-2.5-flash",
		},
		Voice: VoiceConfig{
			BaseURL: "https://api.elevenlabs.io",
		},
		Interview: InterviewConfig{
			MinLiveDuration: 45 * time.Second,
			FinalizeTimeout: 1200 * time.Millisecond,
			EndTimeout:      1500 * time.Millisecond,
			StaleAfter:      0,
			ReaperSchedule:  "*/10 * * * *",
		},
		RateLimit: RateLimitConfig{
			Webhook: Quota{RPS: 5, Burst: 10},
			Voice:   Quota{RPS: 10, Burst: 20},
		},
	}
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.Server.Host == "" {
		c.Server.Host = def.Server.Host
	}
	if c.Server.Port == "" {
		c.Server.Port = def.Server.Port
	}
	if c.Server.Mode == "" {
		c.Server.Mode = def.Server.Mode
	}
	if c.Database.Driver == "" {
		c.Database.Driver = def.Database.Driver
	}
	if c.Database.DSN == "" {
		c.Database.DSN = def.Database.DSN
	}
	if c.JWT.Secret == "" {
		c.JWT.Secret = def.JWT.Secret
	}
	if c.JWT.ExpireHour == 0 {
		c.JWT.ExpireHour = def.JWT.ExpireHour
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = def.LLM.Provider
	}
	if c.LLM.Model == "" {
		c.LLM.Model = def.LLM.Model
	}
	if c.Voice.BaseURL == "" {
		c.Voice.BaseURL = def.Voice.BaseURL
	}
	if c.Interview.MinLiveDuration == 0 {
		c.Interview.MinLiveDuration = def.Interview.MinLiveDuration
	}
	if c.Interview.FinalizeTimeout == 0 {
		c.Interview.FinalizeTimeout = def.Interview.FinalizeTimeout
	}
	if c.Interview.EndTimeout == 0 {
		c.Interview.EndTimeout = def.Interview.EndTimeout
	}
	if c.Interview.ReaperSchedule == "" {
		c.Interview.ReaperSchedule = def.Interview.ReaperSchedule
	}
	if c.RateLimit.Webhook.RPS == 0 {
		c.RateLimit.Webhook = def.RateLimit.Webhook
	}
	if c.RateLimit.Voice.RPS == 0 {
		c.RateLimit.Voice = def.RateLimit.Voice
	}
}

func (c *Config) overrideFromEnv() {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		c.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		c.Server.Port = port
	}
	if mode := os.Getenv("SERVER_MODE"); mode != "" {
		c.Server.Mode = mode
	}
	if driver := os.Getenv("DB_DRIVER"); driver != "" {
		c.Database.Driver = driver
	}
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		c.Database.DSN = dsn
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		c.JWT.Secret = secret
	}
	if password := os.Getenv("DASHBOARD_PASSWORD"); password != "" {
		c.Dashboard.Password = password
	}
	if provider := os.Getenv("LLM_PROVIDER"); provider != "" {
		c.LLM.Provider = provider
	}
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		c.LLM.APIKey = apiKey
	}
	if apiKey := os.Getenv("LLM_API_KEY"); apiKey != "" {
		c.LLM.APIKey = apiKey
	}
	if baseURL := os.Getenv("LLM_BASE_URL"); baseURL != "" {
		c.LLM.BaseURL = baseURL
	}
	if model := os.Getenv("LLM_MODEL"); model != "" {
		c.LLM.Model = model
	}
	if apiKey := os.Getenv("ELEVENLABS_API_KEY"); apiKey != "" {
		c.Voice.APIKey = apiKey
	}
	if agentID := os.Getenv("ELEVENLABS_AGENT_ID"); agentID != "" {
		c.Voice.AgentID = agentID
	}
	if baseURL := os.Getenv("ELEVENLABS_BASE_URL"); baseURL != "" {
		c.Voice.BaseURL = baseURL
	}
	if v := os.Getenv("INTERVIEW_STALE_AFTER"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Interview.StaleAfter = d
		}
	}
	if v := os.Getenv("INTERVIEW_MAX_RESUME_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Interview.MaxResumeAttempts = n
		}
	}
	if v := os.Getenv("RATE_WEBHOOK_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			c.RateLimit.Webhook.RPS = f
		}
	}
	if v := os.Getenv("RATE_WEBHOOK_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.RateLimit.Webhook.Burst = n
		}
	}
	if v := os.Getenv("RATE_VOICE_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			c.RateLimit.Voice.RPS = f
		}
	}
	if v := os.Getenv("RATE_VOICE_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.RateLimit.Voice.Burst = n
		}
	}
	if v := os.Getenv("JWT_EXPIRE_HOUR"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.JWT.ExpireHour = n
		}
	}
}
