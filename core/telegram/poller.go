package telegram

import (
	"fmt"
	"time"

	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/vpasslabs/signalbot/core/config"
)

// BuildPoller returns a Telebot poller for the configured run mode.
// Normalize already lowercased and validated run_mode, so anything that is
// not webhook falls through to long polling.
func BuildPoller(cfg *coreconfig.Config) tele.Poller {
	if cfg.Telegram.RunMode == coreconfig.RunModeWebhook {
		return &tele.Webhook{
			Listen:   fmt.Sprintf("%s:%d", cfg.Webhook.Listen, cfg.Webhook.Port),
			Endpoint: &tele.WebhookEndpoint{PublicURL: cfg.Webhook.URL},
		}
	}

	timeoutSec := cfg.Telegram.LongPollTimeoutSeconds
	if timeoutSec <= 0 {
		timeoutSec = 10
	}
	return &tele.LongPoller{Timeout: time.Duration(timeoutSec) * time.Second}
}
