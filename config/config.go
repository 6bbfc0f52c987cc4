package config

import (
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Config is the full service configuration, loaded from the environment
// (optionally seeded from a .env file).
type Config struct {
	BotToken    string `envconfig:"BOT_TOKEN" required:"true"`
	GroupChatID int64  `envconfig:"GROUP_CHAT_ID"`
	DBPath      string `envconfig:"DB_PATH" default:"meeting_room.db"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// The schedule runs in naive local time at one fixed UTC offset.
	UTCOffsetHours int `envconfig:"UTC_OFFSET_HOURS" default:"4"`

	RoomOpenHour    int `envconfig:"ROOM_OPEN_HOUR" default:"8"`
	RoomCloseHour   int `envconfig:"ROOM_CLOSE_HOUR" default:"20"`
	SlotIntervalMin int `envconfig:"SLOT_INTERVAL_MINUTES" default:"30"`
	MaxBookingDays  int `envconfig:"MAX_BOOKING_DAYS" default:"7"`
	RetentionDays   int `envconfig:"RETENTION_DAYS" default:"30"`
}

// Load reads .env (when present) and the environment into a Config.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Debug().Err(err).Msg("no .env file, using environment as-is")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "process environment")
	}
	return &cfg, nil
}
