package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/logger"
	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/models"
)

var (
	_ Notifier = (*LogNotifier)(nil)
	_ Notifier = (*ChannelNotifier)(nil)
	_ Notifier = MultiNotifier(nil)
)

// LogNotifier writes notifications to the log, keeping a record of what the
// user was shown.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{log: logger.Component("notifier")}
}

func (n *LogNotifier) Notify(ctx context.Context, notification models.Notification) {
	n.log.Debug().Str("template", string(notification.Template)).Fields(notification.Params).Msg("Notification")
}

// ChannelNotifier hands notifications to a presentation layer. A full
// channel drops the notification instead of blocking the caller.
type ChannelNotifier struct {
	ch  chan models.Notification
	log zerolog.Logger
}

func NewChannelNotifier(buffer int) *ChannelNotifier {
	return &ChannelNotifier{
		ch:  make(chan models.Notification, buffer),
		log: logger.Component("notifier"),
	}
}

// Notifications is the receive side for the presentation layer.
func (n *ChannelNotifier) Notifications() <-chan models.Notification {
	return n.ch
}

func (n *ChannelNotifier) Notify(ctx context.Context, notification models.Notification) {
	select {
	case n.ch <- notification:
	default:
		n.log.Warn().Str("template", string(notification.Template)).Msg("Notification channel full, dropping notification")
	}
}

// MultiNotifier delivers each notification to every notifier in order.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, notification models.Notification) {
	for _, n := range m {
		n.Notify(ctx, notification)
	}
}
