package customers

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/salesdesk-backend/pkg/db/models"
	"github.com/angelmondragon/salesdesk-backend/pkg/pagination"
	"github.com/angelmondragon/salesdesk-backend/pkg/types"
)

// CustomerDTO is the customer payload returned to clients.
type CustomerDTO struct {
	ID          uuid.UUID      `json:"id"`
	CompanyName string         `json:"company_name"`
	ContactName string         `json:"contact_name"`
	Email       string         `json:"email"`
	Phone       *string        `json:"phone,omitempty"`
	Address     *types.Address `json:"address,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func NewCustomerDTO(c *models.Customer) *CustomerDTO {
	return &CustomerDTO{
		ID:          c.ID,
		CompanyName: c.CompanyName,
		ContactName: c.ContactName,
		Email:       c.Email,
		Phone:       c.Phone,
		Address:     c.Address,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

// CreateCustomerInput holds the payload to create a customer.
type CreateCustomerInput struct {
	CompanyName string
	ContactName string
	Email       string
	Phone       *string
	Address     *types.Address
}

// UpdateCustomerInput holds optional mutation values. ClearAddress removes the
// stored address.
type UpdateCustomerInput struct {
	CompanyName  *string
	ContactName  *string
	Email        *string
	Phone        *string
	Address      *types.Address
	ClearAddress bool
}

// ListCustomersInput captures the list filters.
type ListCustomersInput struct {
	Query      string
	Pagination pagination.Params
}

// CustomerListResult wraps a page of customers.
type CustomerListResult struct {
	Items  []CustomerDTO `json:"items"`
	Cursor string        `json:"cursor"`
}
