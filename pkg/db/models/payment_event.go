package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/hopefultail/hopeful-tail-backend/pkg/enums"
)

// PaymentEvent is the audit row written for every webhook delivery.
type PaymentEvent struct {
	ID         uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Provider   enums.PaymentProvider     `gorm:"column:provider;not null"`
	OrderCode  *int64                    `gorm:"column:order_code"`
	Code       string                    `gorm:"column:code;not null"`
	Reference  *string                   `gorm:"column:reference"`
	Outcome    enums.PaymentEventOutcome `gorm:"column:outcome;not null"`
	Target     *string                   `gorm:"column:target"`
	Payload    json.RawMessage           `gorm:"column:payload;type:jsonb;not null"`
	ReceivedAt time.Time                 `gorm:"column:received_at;autoCreateTime"`
}
