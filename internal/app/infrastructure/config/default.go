package config

func (m *Manager) GetDefault() *Config {
	return Default()
}

func Default() *Config {
	return &Config{
		App: App{
			LogLevel:     "info",
			LogFile:      "logs/main.log",
			GinMode:      "release",
			Database:     "redditslacker_main.db",
			ProcessedLog: "already_done.txt",
			CacheFile:    "cache/redditors.json",
			Workers:      4,
		},
		Server: Server{
			Addr:         ":8080",
			CertCacheDir: "certs",
		},
		Reddit: Reddit{
			Subreddit:         "explainlikeimfive",
			UserAgent:         "linux:redditslacker:1.0 (by /u/redditslacker)",
			IgnoredAuthors:    []string{"ELI5_BotMod", "AutoModerator"},
			RequestsPerSecond: 1,
			TimeoutSecs:       30,
		},
		Slack: Slack{
			Moderators:        []string{},
			FeedChannel:       "#tlc-feed",
			TrackingChannel:   "#rs_feed",
			BanRequestChannel: "#ban-requests",
		},
		Monitor: Monitor{
			Comments:  Poller{Enabled: true, IntervalSecs: 120, Limit: 100},
			ModLog:    Poller{Enabled: true, IntervalSecs: 300, Limit: 30},
			Modmail:   Poller{Enabled: true, IntervalSecs: 30, Limit: 10},
			Unflaired: Poller{Enabled: false, IntervalSecs: 120, Limit: 20},
		},
		Thresholds: Thresholds{
			Comments:    Threshold{Warning: 5, High: 10},
			Submissions: Threshold{Warning: 3, High: 6},
			Bans:        Threshold{Warning: 1, High: 2},
		},
		Shadowban: Shadowban{
			Enabled:  false,
			WikiPage: "config/automoderator",
		},
		Summary: Summary{
			Limit: 500,
			Blacklist: []string{
				"theredpill", "rage", "atheism", "conspiracy", "the_donald", "subredditcancer",
				"SRSsucks", "drama", "undelete", "blackout2015", "oppression", "kotakuinaction",
				"tumblrinaction", "offensivespeech", "bixnood",
			},
			CacheTTLSecs:   600,
			CacheFlushSecs: 300,
			UsernotesPage:  "usernotes",
			ImgurEndpoint:  "https://api.imgur.com/3/image",
			ChooseLimits:   []int{500, 1000},
			MaxLimit:       1000,
		},
		Unflaired: Unflaired{
			GraceSecs:  600,
			MaxAgeSecs: 13600,
		},
	}
}
