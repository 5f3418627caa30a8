package payments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hopefultail/hopeful-tail-backend/pkg/db/models"
)

// EventRepository persists the webhook audit trail.
type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) WithTx(tx *gorm.DB) *EventRepository {
	return &EventRepository{db: tx}
}

func (r *EventRepository) Create(ctx context.Context, event *models.PaymentEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if len(event.Payload) == 0 {
		event.Payload = []byte("{}")
	}
	return r.db.WithContext(ctx).Create(event).Error
}

// ListByOrderCode returns every delivery recorded for orderCode, oldest first.
func (r *EventRepository) ListByOrderCode(ctx context.Context, orderCode int64) ([]models.PaymentEvent, error) {
	var events []models.PaymentEvent
	err := r.db.WithContext(ctx).
		Where("order_code = ?", orderCode).
		Order("received_at ASC").
		Find(&events).Error
	return events, err
}
