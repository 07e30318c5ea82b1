package contractor

import (
	"context"

	"IzdatBot/entity"
)

// Contractors is the contractor repository as this flow sees it.
type Contractors interface {
	FindByID(ctx context.Context, contractorID string) (*entity.Contractor, error)
	FindByTelegramID(ctx context.Context, telegramID string) (*entity.Contractor, error)
	FuzzyFind(ctx context.Context, name string) ([]entity.Contractor, error)
	Save(ctx context.Context, c *entity.Contractor) error
	BindTelegramID(ctx context.Context, contractorID, telegramID string) error
}

// Parser extracts structured contractor fields from free-form text.
type Parser interface {
	ParseFields(ctx context.Context, text string, fields []string) (map[string]string, error)
}

// Invoices manages payout records for contractors.
type Invoices interface {
	Pending(ctx context.Context, contractorID string) ([]entity.Invoice, error)
	Create(ctx context.Context, contractorID string, amount float64) (*entity.Invoice, error)
}
