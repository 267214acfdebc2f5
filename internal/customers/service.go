package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/salesdesk-backend/pkg/db"
	"github.com/angelmondragon/salesdesk-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/salesdesk-backend/pkg/errors"
	"github.com/angelmondragon/salesdesk-backend/pkg/logger"
	"github.com/angelmondragon/salesdesk-backend/pkg/pagination"
)

// Service manages the customers quotes are addressed to.
type Service interface {
	CreateCustomer(ctx context.Context, input CreateCustomerInput) (*CustomerDTO, error)
	UpdateCustomer(ctx context.Context, id uuid.UUID, input UpdateCustomerInput) (*CustomerDTO, error)
	DeleteCustomer(ctx context.Context, id uuid.UUID) error
	GetCustomer(ctx context.Context, id uuid.UUID) (*CustomerDTO, error)
	ListCustomers(ctx context.Context, input ListCustomersInput) (*CustomerListResult, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo     Repository
	tx       txRunner
	validate *validator.Validate
	logg     *logger.Logger
}

func NewService(repo Repository, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("customer repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, validate: validator.New(), logg: logg}, nil
}

func (s *service) CreateCustomer(ctx context.Context, input CreateCustomerInput) (*CustomerDTO, error) {
	customer := &models.Customer{
		CompanyName: strings.TrimSpace(input.CompanyName),
		ContactName: strings.TrimSpace(input.ContactName),
		Email:       normalizeEmail(input.Email),
		Phone:       trimOptional(input.Phone),
		Address:     input.Address,
	}
	if err := s.check(customer); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, customer); err != nil {
		return nil, translateWriteError(err, "create customer")
	}

	ctx = s.logg.WithField(ctx, "customer_id", customer.ID.String())
	s.logg.Info(ctx, "customer created")
	return NewCustomerDTO(customer), nil
}

func (s *service) UpdateCustomer(ctx context.Context, id uuid.UUID, input UpdateCustomerInput) (*CustomerDTO, error) {
	var updated *models.Customer
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		customer, err := repo.FindByID(ctx, id)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
		}

		if input.CompanyName != nil {
			customer.CompanyName = strings.TrimSpace(*input.CompanyName)
		}
		if input.ContactName != nil {
			customer.ContactName = strings.TrimSpace(*input.ContactName)
		}
		if input.Email != nil {
			customer.Email = normalizeEmail(*input.Email)
		}
		if input.Phone != nil {
			customer.Phone = trimOptional(input.Phone)
		}
		switch {
		case input.ClearAddress:
			customer.Address = nil
		case input.Address != nil:
			customer.Address = input.Address
		}

		if err := s.check(customer); err != nil {
			return err
		}
		if err := repo.Save(ctx, customer); err != nil {
			return translateWriteError(err, "update customer")
		}
		updated = customer
		return nil
	})
	if err != nil {
		return nil, err
	}
	return NewCustomerDTO(updated), nil
}

// DeleteCustomer refuses to remove customers that still have quotes.
func (s *service) DeleteCustomer(ctx context.Context, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		quotes, err := repo.CountQuotes(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count customer quotes")
		}
		if quotes > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "customer has quotes").WithDetails(map[string]any{"quotes": quotes})
		}
		if err := repo.Delete(ctx, id); err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete customer")
		}
		return nil
	})
}

func (s *service) GetCustomer(ctx context.Context, id uuid.UUID) (*CustomerDTO, error) {
	customer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	return NewCustomerDTO(customer), nil
}

func (s *service) ListCustomers(ctx context.Context, input ListCustomersInput) (*CustomerListResult, error) {
	cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, next, err := s.repo.List(ctx, input.Query, input.Pagination.Limit, cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customers")
	}
	items := make([]CustomerDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *NewCustomerDTO(&rows[i]))
	}
	result := &CustomerListResult{Items: items}
	if next != nil {
		result.Cursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}

func (s *service) check(c *models.Customer) error {
	details := map[string]string{}
	if c.CompanyName == "" {
		details["company_name"] = "is required"
	}
	if c.ContactName == "" {
		details["contact_name"] = "is required"
	}
	if err := s.validate.Var(c.Email, "required,email"); err != nil {
		details["email"] = "must be a valid email"
	}
	if c.Address != nil {
		if err := s.validate.Struct(c.Address); err != nil {
			details["address"] = addressProblem(err)
		}
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid customer").WithDetails(details)
	}
	return nil
}

func addressProblem(err error) string {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return fmt.Sprintf("%s is invalid", strings.ToLower(fieldErrs[0].Field()))
	}
	return "is invalid"
}

func translateWriteError(err error, action string) error {
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "email already in use")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

