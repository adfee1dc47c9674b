// Package customers is the pharmacy's customer directory and the handoff that
// carries a picked customer into the next checkout.
package customers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"

	"github.com/medibill/pos-backend/internal/pos"
	"github.com/medibill/pos-backend/pkg/db"
	"github.com/medibill/pos-backend/pkg/db/models"
	"github.com/medibill/pos-backend/pkg/enums"
	pkgerrors "github.com/medibill/pos-backend/pkg/errors"
)

// RecentWindow is how far back a visit counts for the recent filter.
const RecentWindow = 3 * 24 * time.Hour

var ErrCustomerNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")

type customerRepository interface {
	List(ctx context.Context, query ListQuery) ([]models.Customer, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	Create(ctx context.Context, customer *models.Customer) (*models.Customer, error)
	Stats(ctx context.Context) (Stats, error)
}

type Service interface {
	List(ctx context.Context, search string, filter enums.CustomerFilter) ([]CustomerDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*CustomerDTO, error)
	GetCustomerRef(ctx context.Context, id uuid.UUID) (pos.CustomerRef, error)
	Create(ctx context.Context, input CreateCustomerInput) (*CustomerDTO, error)
	Stats(ctx context.Context) (Stats, error)
	// StartSale hands the customer to the next checkout opened on terminalID.
	StartSale(ctx context.Context, terminalID string, customerID uuid.UUID) error
}

type service struct {
	repo    customerRepository
	handoff Handoff
	clock   clockwork.Clock
}

func NewService(repo customerRepository, handoff Handoff, clock clockwork.Clock) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("customer repository required")
	}
	if handoff == nil {
		return nil, fmt.Errorf("customer handoff required")
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &service{repo: repo, handoff: handoff, clock: clock}, nil
}

func (s *service) List(ctx context.Context, search string, filter enums.CustomerFilter) ([]CustomerDTO, error) {
	if filter == "" {
		filter = enums.CustomerFilterAll
	}
	if !filter.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown customer filter %q", filter))
	}
	rows, err := s.repo.List(ctx, ListQuery{
		Search:      search,
		Filter:      filter,
		RecentSince: s.clock.Now().Add(-RecentWindow),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customers")
	}
	out := make([]CustomerDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*CustomerDTO, error) {
	row, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := FromModel(row)
	return &dto, nil
}

func (s *service) GetCustomerRef(ctx context.Context, id uuid.UUID) (pos.CustomerRef, error) {
	row, err := s.load(ctx, id)
	if err != nil {
		return pos.CustomerRef{}, err
	}
	return ToRef(row), nil
}

// Create registers a walk-in customer with zeroed counters.
func (s *service) Create(ctx context.Context, input CreateCustomerInput) (*CustomerDTO, error) {
	name := strings.TrimSpace(input.Name)
	phone := strings.TrimSpace(input.Phone)
	if name == "" || phone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name and phone are required")
	}
	row, err := s.repo.Create(ctx, &models.Customer{
		Name:           name,
		Phone:          phone,
		Email:          strings.TrimSpace(input.Email),
		Address:        strings.TrimSpace(input.Address),
		TotalPurchases: decimal.Zero,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create customer")
	}
	dto := FromModel(row)
	return &dto, nil
}

func (s *service) Stats(ctx context.Context) (Stats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return Stats{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "customer stats")
	}
	return stats, nil
}

func (s *service) StartSale(ctx context.Context, terminalID string, customerID uuid.UUID) error {
	if strings.TrimSpace(terminalID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "terminal id is required")
	}
	if _, err := s.load(ctx, customerID); err != nil {
		return err
	}
	if err := s.handoff.Offer(ctx, terminalID, customerID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "hand off customer")
	}
	return nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrCustomerNotFound
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	return row, nil
}
