package model

import "time"

// Config is the complete geoagent configuration
type Config struct {
	Agent       AgentConfig     `yaml:"agent" mapstructure:"agent"`
	ToolModel   LLMConfig       `yaml:"tool_model" mapstructure:"tool_model"`
	WriterModel LLMConfig       `yaml:"writer_model" mapstructure:"writer_model"`
	Search      SearchConfig    `yaml:"search" mapstructure:"search"`
	Extract     ExtractConfig   `yaml:"extract" mapstructure:"extract"`
	Graph       GraphConfig     `yaml:"graph" mapstructure:"graph"`
	Store       StoreConfig     `yaml:"store" mapstructure:"store"`
	Authority   AuthorityConfig `yaml:"authority" mapstructure:"authority"`
	Server      ServerConfig    `yaml:"server" mapstructure:"server"`
	Log         LogConfig       `yaml:"log" mapstructure:"log"`
}

// AgentConfig bounds the control loop
type AgentConfig struct {
	MaxIterations   int `yaml:"max_iterations" mapstructure:"max_iterations"`
	ForcedTail      int `yaml:"forced_tail" mapstructure:"forced_tail"`             // last N iterations force brief generation
	ResultCharLimit int `yaml:"result_char_limit" mapstructure:"result_char_limit"` // tool result truncation before re-insertion
}

// LLMConfig configures one generative capability
type LLMConfig struct {
	Provider    string  `yaml:"provider" mapstructure:"provider"` // openai, gemini, anthropic, ollama
	Model       string  `yaml:"model" mapstructure:"model"`
	APIKey      string  `yaml:"-" mapstructure:"api_key"`
	APIKeyEnv   string  `yaml:"api_key_env" mapstructure:"api_key_env"`
	BaseURL     string  `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout     int     `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens   int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float32 `yaml:"temperature" mapstructure:"temperature"`
}

// SearchConfig configures the web search capability
type SearchConfig struct {
	BaseURL           string   `yaml:"base_url" mapstructure:"base_url"`
	APIKey            string   `yaml:"-" mapstructure:"api_key"`
	APIKeyEnv         string   `yaml:"api_key_env" mapstructure:"api_key_env"`
	MaxResults        int      `yaml:"max_results" mapstructure:"max_results"`
	MarketDomains     []string `yaml:"market_domains" mapstructure:"market_domains"`
	Timeout           int      `yaml:"timeout" mapstructure:"timeout"` // seconds
	RequestsPerSecond float64  `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int      `yaml:"burst" mapstructure:"burst"`
}

// ExtractConfig configures page content extraction
type ExtractConfig struct {
	Provider      string        `yaml:"provider" mapstructure:"provider"` // tavily or readability
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	HTTPProxy     string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy    string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
}

// GraphConfig selects the graph store; an empty URI uses the in-process graph
type GraphConfig struct {
	URI         string `yaml:"uri" mapstructure:"uri"`
	Username    string `yaml:"username" mapstructure:"username"`
	Password    string `yaml:"-" mapstructure:"password"`
	PasswordEnv string `yaml:"password_env" mapstructure:"password_env"`
	Database    string `yaml:"database" mapstructure:"database"`
}

// StoreConfig configures the artifact store; an empty Dir keeps briefs in memory only
type StoreConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// AuthorityConfig lists domains weighted 3 (primary) and 2 (secondary) by the scorer
type AuthorityConfig struct {
	PrimaryDomains   []string `yaml:"primary_domains" mapstructure:"primary_domains"`
	SecondaryDomains []string `yaml:"secondary_domains" mapstructure:"secondary_domains"`
}

type ServerConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

type LogConfig struct {
	Level   string `yaml:"level" mapstructure:"level"`
	NoColor bool   `yaml:"no_color" mapstructure:"no_color"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Agent: AgentConfig{
			MaxIterations:   15,
			ForcedTail:      2,
			ResultCharLimit: 15000,
		},
		ToolModel: LLMConfig{
			Provider:    "openai",
			Model:       "grok-3-fast",
			APIKeyEnv:   "GROK_API_KEY",
			BaseURL:     "https://api.x.ai/v1",
			Timeout:     90,
			MaxTokens:   4096,
			Temperature: 0.3,
		},
		WriterModel: LLMConfig{
			Provider:    "gemini",
			Model:       "gemini-2.5-flash",
			APIKeyEnv:   "GOOGLE_GEMINI_API_KEY",
			Timeout:     120,
			MaxTokens:   8192,
			Temperature: 0.4,
		},
		Search: SearchConfig{
			BaseURL:    "https://api.tavily.com",
			APIKeyEnv:  "TAVILY_API_KEY",
			MaxResults: 8,
			MarketDomains: []string{
				"zillow.com",
				"realtor.com",
				"redfin.com",
				"nar.realtor",
				"housingwire.com",
				"inman.com",
				"census.gov",
				"freddiemac.com",
				"niche.com",
				"walkscore.com",
				"greatschools.org",
			},
			Timeout:           30,
			RequestsPerSecond: 2,
			Burst:             2,
		},
		Extract: ExtractConfig{
			Provider:      "tavily",
			UserAgent:     "GeoAgent/0.1 (+https://github.com/ppiankov/geoagent)",
			Timeout:       20 * time.Second,
			MaxBodyBytes:  2_000_000,
			RespectRobots: true,
		},
		Graph: GraphConfig{
			Username:    "neo4j",
			PasswordEnv: "NEO4J_PASSWORD",
			Database:    "neo4j",
		},
		Authority: AuthorityConfig{
			PrimaryDomains: []string{
				"census.gov",
				"bls.gov",
				"hud.gov",
				"freddiemac.com",
				"fanniemae.com",
			},
			SecondaryDomains: []string{
				"nar.realtor",
				"zillow.com",
				"redfin.com",
				"realtor.com",
				"housingwire.com",
				"inman.com",
				"wsj.com",
				"nytimes.com",
				"reuters.com",
				"greatschools.org",
				"niche.com",
				"walkscore.com",
			},
		},
		Server: ServerConfig{Addr: ":8080"},
		Log:    LogConfig{Level: "info"},
	}
}
