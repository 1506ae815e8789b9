package notify

import (
	"context"
	"errors"
	"log"
)

// LogChannel writes notifications to the process log. It is the default
// channel when no webhook is configured.
type LogChannel struct {
	logger *log.Logger
}

// NewLogChannel builds a log-backed channel.
func NewLogChannel(logger *log.Logger) (*LogChannel, error) {
	if logger == nil {
		return nil, errors.New("log channel: nil logger")
	}
	return &LogChannel{logger: logger}, nil
}

// Name returns the channel name.
func (c *LogChannel) Name() string { return "log" }

// Send prints the rendered notification.
func (c *LogChannel) Send(_ context.Context, title, content string) error {
	c.logger.Printf("ALERT %s\n%s", title, content)
	return nil
}
