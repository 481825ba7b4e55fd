package notify

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/susu3304/giftbot/internal/ledger"
)

// GiftNotice is the public announcement of a completed gift.
type GiftNotice struct {
	EventID       uuid.UUID       `json:"event_id"`
	TransactionID int64           `json:"transaction_id"`
	GiverID       string          `json:"giver_id"`
	ReceiverID    string          `json:"receiver_id"`
	GiftName      string          `json:"gift_name"`
	Quantity      int64           `json:"quantity"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	ImageURL      string          `json:"image_url,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

func NoticeFromResult(res *ledger.GiftResult) GiftNotice {
	return GiftNotice{
		EventID:       uuid.New(),
		TransactionID: res.TransactionID,
		GiverID:       res.GiverID,
		ReceiverID:    res.ReceiverID,
		GiftName:      res.GiftName,
		Quantity:      res.Quantity,
		TotalAmount:   res.Gross,
		ImageURL:      res.ImageURL,
		OccurredAt:    res.CreatedAt,
	}
}

type Notifier interface {
	NotifyGift(ctx context.Context, n GiftNotice) error
}

// Multi fans a notice out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) NotifyGift(ctx context.Context, n GiftNotice) error {
	var errs []error
	for _, notifier := range m {
		if err := notifier.NotifyGift(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Deliver sends the notice and only logs failures: the gift is already
// committed when this runs.
func Deliver(ctx context.Context, notifier Notifier, n GiftNotice) {
	if notifier == nil {
		return
	}
	if err := notifier.NotifyGift(ctx, n); err != nil {
		log.Printf("notify: gift %d delivery failed: %v", n.TransactionID, err)
	}
}
