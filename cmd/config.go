package main

import "time"

type Config struct {
	Host                 string        `env:"HOST,default=0.0.0.0"`
	Port                 int           `env:"PORT,default=8080"`
	LogLevel             string        `env:"LOG_LEVEL,default=info"`
	BadgerFilepath       string        `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath        string        `env:"BLUGE_FILEPATH,required=true"`
	MaxContentLength     int           `env:"MAX_CONTENT_LENGTH,default=5000"`
	DefaultSender        string        `env:"DEFAULT_SENDER,default=user"`
	InappropriateWords   string        `env:"INAPPROPRIATE_WORDS"`
	APIKeys              string        `env:"API_KEYS"`
	AllowedOrigins       string        `env:"ALLOWED_ORIGINS"`
	RateLimit            int           `env:"RATE_LIMIT,default=100"`
	RateLimitWindow      time.Duration `env:"RATE_LIMIT_WINDOW,default=1h"`
	SubscriberBufferSize int           `env:"SUBSCRIBER_BUFFER_SIZE,default=16"`
	DefaultPageSize      int           `env:"DEFAULT_PAGE_SIZE,default=10"`
	MaxPageSize          int           `env:"MAX_PAGE_SIZE,default=100"`
}
