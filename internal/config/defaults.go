package config

const (
	defaultLogLevel        = "info"
	defaultStartingCapital = 1000.0
	defaultIntervalSeconds = 300
	defaultMaxPositionPct  = 0.3
	defaultMinConfidence   = 0.6
	defaultMarketSource    = "polymarket"
	defaultMinVolume       = 5000.0
	defaultGammaBaseURL    = "https://gamma-api.polymarket.com"
	defaultClobBaseURL     = "https://clob.polymarket.com"
	defaultRateLimitRPS    = 5.0
	defaultHTTPTimeout     = 30
	defaultStrategy        = "llm"
	defaultLLMAPIURL       = "https://openrouter.ai/api/v1"
	defaultLLMModel        = "anthropic/claude-3.5-sonnet"
	defaultLLMTemperature  = 0.7
	defaultLLMMaxTokens    = 500
	defaultLLMTimeout      = 30
	defaultEdgeBuyBelow    = 0.35
	defaultEdgeSellAbove   = 0.75
	defaultEdgeSizePct     = 0.05
	defaultEdgeConfidence  = 0.7
	defaultDatabasePath    = "data/trading.db"
	defaultDecisionLogPath = "data/decisions.db"
)

func (c *Config) applyDefaults() {
	if c.App.LogLevel == "" {
		c.App.LogLevel = defaultLogLevel
	}
	if c.Trading.StartingCapital <= 0 {
		c.Trading.StartingCapital = defaultStartingCapital
	}
	if c.Trading.IntervalSeconds <= 0 {
		c.Trading.IntervalSeconds = defaultIntervalSeconds
	}
	if c.Trading.MaxPositionPct <= 0 {
		c.Trading.MaxPositionPct = defaultMaxPositionPct
	}
	if c.Trading.MinConfidence <= 0 {
		c.Trading.MinConfidence = defaultMinConfidence
	}
	if c.Markets.Source == "" {
		c.Markets.Source = defaultMarketSource
	}
	if c.Markets.MinVolume <= 0 {
		c.Markets.MinVolume = defaultMinVolume
	}
	if len(c.Markets.SeriesKeywords) == 0 {
		c.Markets.SeriesKeywords = []string{"cri", "t20", "ipl", "bbl", "bpl", "sa20", "ilt20", "wpl"}
	}
	if c.Markets.GammaBaseURL == "" {
		c.Markets.GammaBaseURL = defaultGammaBaseURL
	}
	if c.Markets.ClobBaseURL == "" {
		c.Markets.ClobBaseURL = defaultClobBaseURL
	}
	if c.Markets.RateLimitRPS <= 0 {
		c.Markets.RateLimitRPS = defaultRateLimitRPS
	}
	if c.Markets.TimeoutSeconds <= 0 {
		c.Markets.TimeoutSeconds = defaultHTTPTimeout
	}
	if c.Strategy.Active == "" {
		c.Strategy.Active = defaultStrategy
	}
	if c.Strategy.LLM.APIURL == "" {
		c.Strategy.LLM.APIURL = defaultLLMAPIURL
	}
	if c.Strategy.LLM.Model == "" {
		c.Strategy.LLM.Model = defaultLLMModel
	}
	if c.Strategy.LLM.Temperature <= 0 {
		c.Strategy.LLM.Temperature = defaultLLMTemperature
	}
	if c.Strategy.LLM.MaxTokens <= 0 {
		c.Strategy.LLM.MaxTokens = defaultLLMMaxTokens
	}
	if c.Strategy.LLM.TimeoutSeconds <= 0 {
		c.Strategy.LLM.TimeoutSeconds = defaultLLMTimeout
	}
	if c.Strategy.Edge.BuyBelow <= 0 {
		c.Strategy.Edge.BuyBelow = defaultEdgeBuyBelow
	}
	if c.Strategy.Edge.SellAbove <= 0 {
		c.Strategy.Edge.SellAbove = defaultEdgeSellAbove
	}
	if c.Strategy.Edge.SizePct <= 0 {
		c.Strategy.Edge.SizePct = defaultEdgeSizePct
	}
	if c.Strategy.Edge.Confidence <= 0 {
		c.Strategy.Edge.Confidence = defaultEdgeConfidence
	}
	if c.Database.Path == "" {
		c.Database.Path = defaultDatabasePath
	}
	if c.Database.DecisionLogPath == "" {
		c.Database.DecisionLogPath = defaultDecisionLogPath
	}
}
