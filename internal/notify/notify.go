// Package notify delivers one-line completion messages for finished
// stitching runs. Telegram is the only transport; long runs on lab
// workstations are usually watched from a phone.
package notify

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/mosaicworks/stitchagent/internal/config"
	"github.com/mosaicworks/stitchagent/internal/report"
)

// Notifier delivers a completion message for a finished run.
type Notifier interface {
	Notify(ctx context.Context, run *report.Run) error
}

// sender is the slice of the Telegram client the notifier needs.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram posts run summaries to a single chat.
type Telegram struct {
	bot    sender
	chatID int64
}

// FromConfig builds a Telegram notifier from the [notify] section. It
// returns (nil, nil) when no token is configured, so callers can treat
// notifications as strictly optional.
func FromConfig(cfg config.NotifyConfig) (*Telegram, error) {
	if strings.TrimSpace(cfg.TelegramToken) == "" {
		return nil, nil
	}
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	return &Telegram{bot: bot, chatID: cfg.TelegramChatID}, nil
}

// Notify sends the summary line. The context is accepted for interface
// symmetry; the underlying client has no context support.
func (t *Telegram) Notify(_ context.Context, run *report.Run) error {
	msg := tgbotapi.NewMessage(t.chatID, Summarize(run))
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

// Summarize renders the single-line outcome used as the message text.
func Summarize(run *report.Run) string {
	switch run.Status {
	case report.StatusOK:
		if run.OutputSize >= 0 {
			return fmt.Sprintf("✅ %s: %s (%.2f MB)", run.Title, run.OutputPath, run.SizeMiB())
		}
		return fmt.Sprintf("✅ %s: %s", run.Title, run.OutputPath)
	case report.StatusToolError:
		return fmt.Sprintf("❌ %s: ashlar exited with code %d", run.Title, run.ExitCode)
	case report.StatusLaunchError:
		return fmt.Sprintf("❌ %s: %s", run.Title, run.LaunchErr)
	default:
		return fmt.Sprintf("❌ %s: %s", run.Title, run.Reason)
	}
}
