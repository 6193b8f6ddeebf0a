package main

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"tonebot/domain"
)

type Config struct {
	BridgeURL    string `env:"BRIDGE_URL,required=true" validate:"required,url"`
	InferenceURL string `env:"INFERENCE_URL,required=true" validate:"required,url"`
	NewsAPIKey   string `env:"NEWS_API_KEY"`

	// MongoURL switches credential persistence from the local auth
	// directory to MongoDB when set.
	MongoURL string `env:"MONGO_URL"`
	AuthDir  string `env:"AUTH_DIR,default=auth_info"`

	AllowedIDs  string `env:"ALLOWED_IDS,required=true" validate:"required"`
	DailyChatID string `env:"DAILY_CHAT_ID"`

	HistoryCapacity int           `env:"HISTORY_CAPACITY,default=20" validate:"gt=0"`
	BroadcastPacing time.Duration `env:"BROADCAST_PACING,default=1s"`
	ReconnectDelay  time.Duration `env:"RECONNECT_DELAY,default=3s"`
	RestartInterval time.Duration `env:"RESTART_INTERVAL,default=200ms"`

	BadgerFilepath string `env:"BADGER_FILEPATH,required=true" validate:"required"`
	BlugeFilepath  string `env:"BLUGE_FILEPATH,required=true" validate:"required"`

	LogLevel string `env:"LOG_LEVEL,default=INFO"`
	Port     int    `env:"PORT,default=3000" validate:"gt=0,lte=65535"`
}

func (c Config) Validate() error {
	return validator.New().Struct(c)
}

// AllowList parses the comma-separated authorized participant list.
func (c Config) AllowList() []domain.ParticipantID {
	var out []domain.ParticipantID
	for _, raw := range strings.Split(c.AllowedIDs, ",") {
		id := strings.TrimSpace(raw)
		if id == "" {
			continue
		}
		out = append(out, domain.ParticipantID(id))
	}
	return out
}
