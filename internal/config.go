package internal

import "time"

// Config is the server environment. Defaults suit a local single-process
// deployment.
type Config struct {
	Host                 string        `env:"HOST,default=0.0.0.0"`
	Port                 int           `env:"PORT,default=5555"`
	LogLevel             string        `env:"LOG_LEVEL,default=INFO"`
	BadgerFilepath       string        `env:"BADGER_FILEPATH,required=true"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=64"`
	WriteTimeout         time.Duration `env:"WRITE_TIMEOUT,default=10s"`
	PongTimeout          time.Duration `env:"PONG_TIMEOUT,default=60s"`
	ShutdownTimeout      time.Duration `env:"SHUTDOWN_TIMEOUT,default=5s"`

	// EchoGroupMessages controls whether a group sender receives its own
	// message back. Defaults to echoing, which keeps client UIs consistent
	// with the always-echoing global room.
	EchoGroupMessages bool `env:"ECHO_GROUP_MESSAGES,default=true"`
}
