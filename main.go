package main

import (
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"meeting-room-bot/bot"
	"meeting-room-bot/config"
	"meeting-room-bot/engine"
	"meeting-room-bot/notify"
	"meeting-room-bot/store"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load configuration")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open store")
	}

	eng := engine.New(st, engine.Config{
		OpenHour:  cfg.RoomOpenHour,
		CloseHour: cfg.RoomCloseHour,
		SlotStep:  time.Duration(cfg.SlotIntervalMin) * time.Minute,
		Now:       engine.FixedZoneClock(cfg.UTCOffsetHours),
	})

	b, err := bot.New(cfg.BotToken, st, eng, bot.Config{MaxBookingDays: cfg.MaxBookingDays})
	if err != nil {
		log.Fatal().Err(err).Msg("start telegram bot")
	}

	// The notifier needs the telebot instance, so it is wired after the
	// bot is built.
	notifier := notify.New(b.B, cfg.GroupChatID)
	eng.SetNotify(notifier.BookingCreated)

	// Nightly retention sweep for old cancelled bookings.
	c := cron.New()
	c.AddFunc("0 3 * * *", func() {
		n, err := eng.SweepRetention(cfg.RetentionDays)
		if err != nil {
			log.Error().Err(err).Msg("retention sweep failed")
			return
		}
		log.Info().Int64("purged", n).Msg("retention sweep done")
	})
	c.Start()

	log.Info().Msg("bot started")
	b.Start()
}
