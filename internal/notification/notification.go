package notification

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pazardigital/walletd/internal/logger"
)

const (
	// KindDepositApproved indicates a deposit request was approved and credited
	KindDepositApproved = "deposit_approved"
)

// Event describes an outbound notification payload
type Event struct {
	Kind    string
	UserID  uuid.UUID
	Amount  decimal.Decimal
	Balance decimal.Decimal
}

// Notifier delivers wallet events to downstream systems (email, chat).
// Delivery is fire-and-forget: callers log errors and move on, a failed
// notification never fails the ledger operation that produced it.
type Notifier interface {
	Send(ctx context.Context, event Event) error
}

// LogNotifier writes events to the structured logger.
// Stands in for real email and chat dispatchers.
type LogNotifier struct {
	Logger logger.Logger
}

func (n *LogNotifier) Send(_ context.Context, event Event) error {
	n.Logger.Info("notification",
		"kind", event.Kind,
		"user_id", event.UserID,
		"amount", event.Amount,
		"balance", event.Balance,
	)
	return nil
}
