// Package notify tells users about newly formed mutual matches.
package notify

import (
	"context"

	"github.com/dmitrijs2005/pup/internal/logging"
)

// Contact identifies one side of a match for delivery.
type Contact struct {
	UserID      string
	Email       string
	DisplayName string
}

type Notifier interface {
	MutualMatch(ctx context.Context, a, b Contact) error
}

// LogNotifier only records the event. It is used when no mail provider is
// configured.
type LogNotifier struct {
	logger logging.Logger
}

func NewLogNotifier(logger logging.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("module", "notify")}
}

func (n *LogNotifier) MutualMatch(ctx context.Context, a, b Contact) error {
	n.logger.Info(ctx, "mutual match", "user_a", a.UserID, "user_b", b.UserID)
	return nil
}
