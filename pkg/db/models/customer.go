package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/salesdesk-backend/pkg/types"
)

// Customer is the company a quote is addressed to.
type Customer struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey"`
	CompanyName string         `gorm:"column:company_name;not null;index"`
	ContactName string         `gorm:"column:contact_name;not null"`
	Email       string         `gorm:"column:email;not null;uniqueIndex"`
	Phone       *string        `gorm:"column:phone"`
	Address     *types.Address `gorm:"column:address;type:address_t"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Customer) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}
