package main

import (
	"time"

	"flyte/repositories"
	"flyte/runtime"
	"flyte/services"
)

// App bundles the wired core for transport adapters.
type App struct {
	Journeys services.IJourneyService
	Messages services.IMessageService
	Chat     services.IChatService
	Rooms    services.IRoomService
	Users    repositories.IUserRepository
	Broker   *runtime.Broker
}

type Config struct {
	BadgerFilepath     string `env:"BADGER_FILEPATH,required=true"`
	LogLevel           string `env:"LOG_LEVEL,default=INFO"`
	TotalSlots         int    `env:"TOTAL_SLOTS,required=true"`
	NotificationBuffer int           `env:"NOTIFICATION_BUFFER,default=256"`
	RestartInterval    time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	DebugAddr          string        `env:"DEBUG_ADDR,default=localhost:6060"`

	// Optional moderation word list, one word per line. Moderation is
	// disabled when unset.
	CensoredWordsPath         string `env:"CENSORED_WORDS_PATH"`
	ModerationCharReplacement string `env:"MODERATION_CHARACTER_REPLACEMENT,default=*"`
}
