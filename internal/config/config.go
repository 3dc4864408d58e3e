package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port        string
	DatabaseURL string
	ProxyURL    string

	// Board behaviour. The numeric thresholds are product policy, not
	// mechanism, so they stay configurable.
	RowHeight            int
	ExpandedRowHeight    int
	ChatLineHeight       int
	MobileWidthCutoff    int
	ScrollTolerance      int
	LongPressHold        time.Duration
	LongPressTolerance   float64
	AutoHideSeconds      int
	QuestionsPerPage     int
	MaxPartySize         int
	SuppressWebMessaging bool

	// Sync loop.
	PollInterval time.Duration
	RefreshDelay time.Duration

	// Outbound messaging proxy.
	MessagingURL     string
	MessagingService string

	// Local badge persistence.
	BadgeDBPath string

	RateLimitPerMinute int
	RateLimitBurst     int
}

func Load() Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	return Config{
		Port:        port,
		DatabaseURL: os.Getenv("DB_DSN"),
		ProxyURL:    os.Getenv("CRUD_PROXY_URL"),

		RowHeight:            readInt("ROW_HEIGHT_PX", 64),
		ExpandedRowHeight:    readInt("EXPANDED_ROW_HEIGHT_PX", 112),
		ChatLineHeight:       readInt("CHAT_LINE_HEIGHT_PX", 20),
		MobileWidthCutoff:    readInt("MOBILE_WIDTH_CUTOFF_PX", 768),
		ScrollTolerance:      readInt("SCROLL_TOLERANCE_PX", 4),
		LongPressHold:        readDurationMillis("LONG_PRESS_HOLD_MS", 500),
		LongPressTolerance:   float64(readInt("LONG_PRESS_TOLERANCE_PX", 10)),
		AutoHideSeconds:      readInt("AUTO_HIDE_SECONDS", 10),
		QuestionsPerPage:     readInt("QUESTIONS_PER_PAGE", 3),
		MaxPartySize:         readInt("MAX_PARTY_SIZE", 12),
		SuppressWebMessaging: readBool("SUPPRESS_WEB_MESSAGING", false),

		PollInterval: readDurationSeconds("POLL_INTERVAL_SECONDS", 3),
		RefreshDelay: readDurationMillis("REFRESH_DELAY_MS", 300),

		MessagingURL:     os.Getenv("MESSAGING_PROXY_URL"),
		MessagingService: readString("MESSAGING_SERVICE", "default"),

		BadgeDBPath: readString("BADGE_DB_PATH", "badges.db"),

		RateLimitPerMinute: readInt("RATE_LIMIT_PER_MIN", 120),
		RateLimitBurst:     readInt("RATE_LIMIT_BURST", 30),
	}
}

func readString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func readDurationSeconds(key string, fallback int) time.Duration {
	value := readInt(key, fallback)
	if value <= 0 {
		return 0
	}
	return time.Duration(value) * time.Second
}

func readDurationMillis(key string, fallback int) time.Duration {
	value := readInt(key, fallback)
	if value <= 0 {
		return 0
	}
	return time.Duration(value) * time.Millisecond
}

func readInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func readBool(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return value
}
