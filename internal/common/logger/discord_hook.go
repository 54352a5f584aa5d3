package logger

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/railseat/internal/common/discord"
)

// alertSender is the part of the Discord client the hook needs.
type alertSender interface {
	SendLogMessage(level, message string, fields map[string]interface{}) error
}

// DiscordHook forwards error and fatal entries, fields included, to a Discord webhook.
type DiscordHook struct {
	client alertSender
	sync   bool
}

func NewDiscordHook(client *discord.Client) *DiscordHook {
	return &DiscordHook{client: client}
}

// Fire sends one alert for an entry at level. Sends are asynchronous except for fatal
// entries, which must go out before the process exits.
func (h *DiscordHook) Fire(level zerolog.Level, msg string, fields map[string]interface{}) {
	if level < zerolog.ErrorLevel || level == zerolog.NoLevel || level == zerolog.Disabled {
		return
	}

	name := strings.ToUpper(level.String())
	send := func() {
		// Nothing to report to if the webhook is down.
		_ = h.client.SendLogMessage(name, msg, fields)
	}

	if h.sync || level == zerolog.FatalLevel {
		send()
		return
	}
	go send()
}
