// Package receipts archives issued receipts and serves them back for reprints,
// the sales history and a customer's purchase history.
package receipts

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/medibill/pos-backend/internal/pos"
	"github.com/medibill/pos-backend/pkg/db"
	"github.com/medibill/pos-backend/pkg/db/models"
	pkgerrors "github.com/medibill/pos-backend/pkg/errors"
	"github.com/medibill/pos-backend/pkg/logger"
	"github.com/medibill/pos-backend/pkg/pagination"
)

var (
	ErrReceiptNotFound  = pkgerrors.New(pkgerrors.CodeNotFound, "receipt not found")
	ErrDuplicateReceipt = pkgerrors.New(pkgerrors.CodeConflict, "receipt number already archived")
)

type receiptRepository interface {
	Create(ctx context.Context, receipt *models.Receipt) error
	FindByNumber(ctx context.Context, number string) (*models.Receipt, error)
	List(ctx context.Context, opts listQuery) ([]models.Receipt, error)
}

type Service interface {
	// Archive stores an issued receipt. It satisfies the checkout receipt sink.
	Archive(ctx context.Context, receipt pos.Receipt) error
	GetByNumber(ctx context.Context, number string) (pos.Receipt, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
}

type service struct {
	repo receiptRepository
	logg *logger.Logger
}

func NewService(repo receiptRepository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("receipt repository required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) Archive(ctx context.Context, receipt pos.Receipt) error {
	if strings.TrimSpace(receipt.Number) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "receipt number is required")
	}
	if receipt.ID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "receipt id is required")
	}
	if err := s.repo.Create(ctx, toModel(receipt)); err != nil {
		if db.IsUniqueViolation(err, "") {
			return ErrDuplicateReceipt.WithDetailsCopy(map[string]any{"receipt_number": receipt.Number})
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "archive receipt")
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"receipt_number": receipt.Number,
		"lines":          len(receipt.Items),
	}), "receipts.archived")
	return nil
}

func (s *service) GetByNumber(ctx context.Context, number string) (pos.Receipt, error) {
	row, err := s.repo.FindByNumber(ctx, strings.TrimSpace(number))
	if err != nil {
		if db.IsNotFound(err) {
			return pos.Receipt{}, ErrReceiptNotFound
		}
		return pos.Receipt{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load receipt")
	}
	return fromModel(row), nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.From != nil && params.To != nil && !params.From.Before(*params.To) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "from must be before to")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	query := listQuery{
		from:       params.From,
		to:         params.To,
		customerID: params.CustomerID,
		limit:      pagination.LimitWithBuffer(params.Limit),
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.cursor = cursor
	}

	rows, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list receipts")
	}

	nextCursor := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[limit-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{At: last.IssuedAt, ID: last.ID})
	}

	items := make([]ListItem, len(rows))
	for i, row := range rows {
		items[i] = toListItem(row)
	}
	return &ListResult{Items: items, Cursor: nextCursor}, nil
}
