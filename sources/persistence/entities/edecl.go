package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type (
	User struct {
		ID                uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
		UserID            int64           `gorm:"uniqueIndex;not null" json:"user_id"`
		Username          *string         `gorm:"size:255" json:"username"`
		Fullname          *string         `gorm:"size:255" json:"fullname"`
		Balance           decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"balance"`
		ReferralFreeUses  int             `gorm:"not null;default:0" json:"referral_free_uses"`
		ReferralMaxAmount decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"referral_max_amount"`
		IsActive          *bool           `gorm:"not null;default:true" json:"is_active"`
		CreatedAt         time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
		UpdatedAt         time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

		Charges     []PendingCharge `gorm:"foreignKey:UserID;references:UserID" json:"charges"`
		Generations []Generation    `gorm:"foreignKey:UserID;references:UserID" json:"generations"`
	}

	PendingCharge struct {
		ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
		TxID      string          `gorm:"size:128;uniqueIndex;not null" json:"tx_id"`
		UserID    int64           `gorm:"not null;index" json:"user_id"`
		ModelID   string          `gorm:"size:128;not null" json:"model_id"`
		Amount    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
		Status    string          `gorm:"size:16;not null;default:pending;index" json:"status"`
		Reason    *string         `gorm:"size:128" json:"reason"`
		Reserved  bool            `gorm:"not null;default:false" json:"reserved"`
		CreatedAt time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
		UpdatedAt time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	}

	ProcessedUpdate struct {
		UpdateID    int64     `gorm:"primaryKey" json:"update_id"`
		ProcessedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"processed_at"`
	}

	InstanceLease struct {
		Name         string    `gorm:"size:64;primaryKey" json:"name"`
		HolderID     string    `gorm:"size:64;not null" json:"holder_id"`
		ExpiresAt    time.Time `gorm:"not null" json:"expires_at"`
		HeartbeatSeq int64     `gorm:"not null;default:0" json:"heartbeat_seq"`
	}

	Generation struct {
		ID         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
		UserID     int64           `gorm:"not null;index" json:"user_id"`
		ModelID    string          `gorm:"size:128;not null" json:"model_id"`
		TxID       *string         `gorm:"size:128" json:"tx_id"`
		CostBasis  string          `gorm:"size:32;not null" json:"cost_basis"`
		Amount     decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"amount"`
		Success    bool            `gorm:"not null" json:"success"`
		ResultURLs pq.StringArray  `gorm:"type:text[]" json:"result_urls"`
		Message    string          `gorm:"type:text" json:"message"`
		CreatedAt  time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	}
)

func (User) TableName() string            { return "mk_users" }
func (PendingCharge) TableName() string   { return "mk_pending_charges" }
func (ProcessedUpdate) TableName() string { return "mk_processed_updates" }
func (InstanceLease) TableName() string   { return "mk_instance_lease" }
func (Generation) TableName() string      { return "mk_generations" }
