package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"IzdatBot/entity"
)

// Invoices sheet column order.
const (
	invColContractorID = iota
	invColNumber
	invColMonth
	invColAmount
	invColCurrency
	invColStatus
	invoiceCols
)

func rowToInvoice(row []any) *entity.Invoice {
	number, _ := strconv.Atoi(cell(row, invColNumber))
	amount, _ := strconv.ParseFloat(cell(row, invColAmount), 64)
	return &entity.Invoice{
		ContractorID:  cell(row, invColContractorID),
		InvoiceNumber: number,
		Month:         cell(row, invColMonth),
		Amount:        amount,
		Currency:      entity.Currency(cell(row, invColCurrency)),
		Status:        entity.InvoiceStatus(cell(row, invColStatus)),
	}
}

func invoiceToRow(inv *entity.Invoice) []any {
	row := make([]any, invoiceCols)
	row[invColContractorID] = inv.ContractorID
	row[invColNumber] = strconv.Itoa(inv.InvoiceNumber)
	row[invColMonth] = inv.Month
	row[invColAmount] = strconv.FormatFloat(inv.Amount, 'f', 2, 64)
	row[invColCurrency] = string(inv.Currency)
	row[invColStatus] = string(inv.Status)
	return row
}

func invoiceRowRange(rowIdx int) string {
	n := rowIdx + 2
	return fmt.Sprintf("Invoices!A%d:F%d", n, n)
}

// Pending returns draft invoices still waiting for an amount.
func (s *Service) Pending(ctx context.Context, contractorID string) ([]entity.Invoice, error) {
	rows, err := s.readRange(ctx, invoicesRange)
	if err != nil {
		return nil, err
	}

	var pending []entity.Invoice
	for _, row := range rows {
		inv := rowToInvoice(row)
		if inv.ContractorID == contractorID && inv.Status == entity.InvoiceDraft && inv.Amount == 0 {
			pending = append(pending, *inv)
		}
	}
	return pending, nil
}

// Create fills the contractor's pending draft with the amount, or appends a
// fresh invoice row when no draft exists. The contractor's running invoice
// number is advanced on their row.
func (s *Service) Create(ctx context.Context, contractorID string, amount float64) (*entity.Invoice, error) {
	c, contractorIdx, err := s.findRow(ctx, func(c *entity.Contractor) bool {
		return c.ID == contractorID
	})
	if err != nil {
		return nil, err
	}

	c.InvoiceNumber++
	inv := &entity.Invoice{
		ContractorID:  contractorID,
		InvoiceNumber: c.InvoiceNumber,
		Month:         time.Now().Format("2006-01"),
		Amount:        amount,
		Currency:      c.Currency(),
		Status:        entity.InvoiceSent,
	}

	rows, err := s.readRange(ctx, invoicesRange)
	if err != nil {
		return nil, err
	}
	draftIdx := -1
	for i, row := range rows {
		existing := rowToInvoice(row)
		if existing.ContractorID == contractorID && existing.Status == entity.InvoiceDraft && existing.Amount == 0 {
			draftIdx = i
			inv.Month = existing.Month
			break
		}
	}

	if draftIdx >= 0 {
		err = s.updateRow(ctx, invoiceRowRange(draftIdx), invoiceToRow(inv))
	} else {
		err = s.appendRow(ctx, invoicesRange, invoiceToRow(inv))
	}
	if err != nil {
		return nil, err
	}

	if err := s.updateRow(ctx, contractorRowRange(contractorIdx), contractorToRow(c)); err != nil {
		return nil, err
	}

	s.log.Info("invoice recorded",
		slog.String("contractor", contractorID),
		slog.Int("number", inv.InvoiceNumber),
	)
	return inv, nil
}
