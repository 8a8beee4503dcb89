package main

import (
	"time"

	"github.com/herraise/hubclient/pkg/redis"
)

// Storage drivers accepted by HUB_STORE_DRIVER.
const (
	driverFile   = "file"
	driverRedis  = "redis"
	driverMemory = "memory"
)

// Config is the whole runtime configuration, read from the environment (and
// a .env file if present).
type Config struct {
	APIURL     string `env:"HUB_API_URL" envDefault:"http://localhost:5000"`
	SocketPath string `env:"HUB_SOCKET_PATH" envDefault:"/ws"`
	Token      string `env:"HUB_TOKEN"`

	Env      string `env:"HUB_ENV" envDefault:"development"`
	LogLevel string `env:"HUB_LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"HUB_LOG_FILE"`

	StoreDriver string `env:"HUB_STORE_DRIVER" envDefault:"file"`
	StorePath   string `env:"HUB_STORE_PATH"`
	StorePrefix string `env:"HUB_STORE_PREFIX" envDefault:"hubclient"`
	Redis       redis.Config

	ReconnectAttempts    int           `env:"HUB_RECONNECT_ATTEMPTS" envDefault:"5"`
	ReconnectDelay       time.Duration `env:"HUB_RECONNECT_DELAY" envDefault:"1s"`
	DesktopNotifications bool          `env:"HUB_DESKTOP_NOTIFICATIONS" envDefault:"true"`
	ReminderInterval     time.Duration `env:"HUB_REMINDER_INTERVAL" envDefault:"1h"`
	HistoryPageSize      int           `env:"HUB_HISTORY_PAGE_SIZE" envDefault:"20"`
	HTTPTimeout          time.Duration `env:"HUB_HTTP_TIMEOUT" envDefault:"15s"`
}
