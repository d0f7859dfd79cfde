package config

type Config struct {
	App        App        `json:"app"`
	Proxy      *Proxy     `json:"proxy"`
	Server     Server     `json:"server"`
	Reddit     Reddit     `json:"reddit"`
	Slack      Slack      `json:"slack"`
	Monitor    Monitor    `json:"monitor"`
	Thresholds Thresholds `json:"thresholds"`
	Shadowban  Shadowban  `json:"shadowban"`
	Summary    Summary    `json:"summary"`
	Unflaired  Unflaired  `json:"unflaired"`
}

type App struct {
	LogLevel     string `json:"log_level"`
	LogFile      string `json:"log_file"`
	GinMode      string `json:"gin_mode"`
	DryRun       bool   `json:"dry_run"`
	Database     string `json:"database"`
	ProcessedLog string `json:"processed_log"`
	// CacheFile persists looked-up redditors; empty keeps them in memory.
	CacheFile    string `json:"cache_file"`
	Workers      int    `json:"workers"`
}

type Proxy struct {
	Address string `json:"address"`
	Port    int    `json:"port"`
}

type Server struct {
	Addr         string   `json:"addr"`
	CertFile     string   `json:"cert_file"`
	KeyFile      string   `json:"key_file"`
	CertDomains  []string `json:"cert_domains"`
	CertCacheDir string   `json:"cert_cache_dir"`
}

type Reddit struct {
	Subreddit         string   `json:"subreddit"`
	UserAgent         string   `json:"user_agent"`
	IgnoredAuthors    []string `json:"ignored_authors"`
	RequestsPerSecond float64  `json:"requests_per_second"`
	TimeoutSecs       int      `json:"timeout_secs"`
}

type Slack struct {
	Moderators        []string `json:"moderators"`
	FeedChannel       string   `json:"feed_channel"`
	TrackingChannel   string   `json:"tracking_channel"`
	BanRequestChannel string   `json:"ban_request_channel"`
}

type Poller struct {
	Enabled      bool `json:"enabled"`
	IntervalSecs int  `json:"interval_secs"`
	Limit        int  `json:"limit"`
}

type Monitor struct {
	Comments  Poller `json:"comments"`
	ModLog    Poller `json:"modlog"`
	Modmail   Poller `json:"modmail"`
	Unflaired Poller `json:"unflaired"`
}

type Threshold struct {
	Warning int `json:"warning"`
	High    int `json:"high"`
}

type Thresholds struct {
	Comments    Threshold `json:"comments"`
	Submissions Threshold `json:"submissions"`
	Bans        Threshold `json:"bans"`
}

type Shadowban struct {
	Enabled  bool   `json:"enabled"`
	WikiPage string `json:"wiki_page"`
}

type Summary struct {
	Limit          int      `json:"limit"`
	Blacklist      []string `json:"blacklist"`
	CacheTTLSecs   int      `json:"cache_ttl_secs"`
	CacheFlushSecs int      `json:"cache_flush_secs"`
	UsernotesPage  string   `json:"usernotes_page"`
	ImgurEndpoint  string   `json:"imgur_endpoint"`
	ChooseLimits   []int    `json:"choose_limits"`
	MaxLimit       int      `json:"max_limit"`
}

type Unflaired struct {
	GraceSecs  int `json:"grace_secs"`
	MaxAgeSecs int `json:"max_age_secs"`
}

// Secrets are credentials read from the environment, never persisted.
type Secrets struct {
	SlackBotToken          string
	SlackSigningSecret     string
	SlackVerificationToken string
	RedditClientID         string
	RedditClientSecret     string
	RedditUsername         string
	RedditPassword         string
	ImgurClientID          string
	AdminToken             string
}
