// Package telegram owns the Telebot wiring: poller selection, the tuned
// HTTP client, command registration and the bot lifecycle.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/vpasslabs/signalbot/core/config"
	"github.com/vpasslabs/signalbot/core/logger"
)

// NewBot constructs a bot from config with the tuned HTTP client and the
// configured poller. It does not start polling.
func NewBot(cfg *coreconfig.Config) (*tele.Bot, error) {
	bot, err := tele.NewBot(tele.Settings{
		Token:  cfg.Telegram.Token,
		Poller: BuildPoller(cfg),
		Client: BuildHTTPClient(),
	})
	if err != nil {
		return nil, fmt.Errorf("telegram: bot initialization failed: %w", err)
	}
	return bot, nil
}

// Run starts the bot and blocks until ctx is cancelled or polling stops
// on its own. In long-poll mode any stale webhook is removed first, since
// Telegram refuses getUpdates while a webhook is set.
func Run(ctx context.Context, bot *tele.Bot, cfg *coreconfig.Config) error {
	switch cfg.Telegram.RunMode {
	case coreconfig.RunModeWebhook:
		logger.Info(ctx, "tg", "tg.mode",
			slog.String("mode", "webhook"),
			slog.String("public_url", cfg.Webhook.URL),
		)
	default:
		logger.Info(ctx, "tg", "tg.mode", slog.String("mode", "longpoll"))
		if err := deleteWebhook(ctx, cfg.Telegram.Token); err != nil {
			logger.Warn(ctx, "tg", "tg.delete_webhook_failed", slog.String("err", err.Error()))
		}
	}

	done := make(chan struct{})
	go func() {
		bot.Start()
		close(done)
	}()

	select {
	case <-ctx.Done():
		bot.Stop()
		<-done
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil
		}
		return ctx.Err()
	case <-done:
		return nil
	}
}

func deleteWebhook(ctx context.Context, token string) error {
	url := fmt.Sprintf("https://api.telegram.org/bot%s/deleteWebhook", token)
	reqCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url,
		strings.NewReader("drop_pending_updates=false"))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("deleteWebhook status: %s", resp.Status)
	}
	return nil
}
