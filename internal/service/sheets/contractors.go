package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"IzdatBot/entity"
)

// Contractors sheet column order. The row layout mirrors the spreadsheet the
// accountants maintain by hand, so the order is fixed.
const (
	colID = iota
	colType
	colNameRU
	colNameEN
	colAliases
	colRole
	colEmail
	colPhone
	colAddress
	colBankName
	colBankAccount
	colSwift
	colBik
	colCorrAccount
	colInn
	colOgrnip
	colPassportSeries
	colPassportNumber
	colMags
	colInvoiceNumber
	colTelegram
	colSecretCode
	contractorCols
)

func cell(row []any, idx int) string {
	if idx >= len(row) {
		return ""
	}
	s, _ := row[idx].(string)
	return strings.TrimSpace(s)
}

func rowToContractor(row []any) *entity.Contractor {
	invoiceNumber, _ := strconv.Atoi(cell(row, colInvoiceNumber))

	var aliases []string
	if raw := cell(row, colAliases); raw != "" {
		for _, a := range strings.Split(raw, "|") {
			if a = strings.TrimSpace(a); a != "" {
				aliases = append(aliases, a)
			}
		}
	}

	return &entity.Contractor{
		ID:             cell(row, colID),
		Type:           entity.ContractorType(cell(row, colType)),
		NameRU:         cell(row, colNameRU),
		NameEN:         cell(row, colNameEN),
		Aliases:        aliases,
		RoleCode:       entity.RoleCode(cell(row, colRole)),
		Email:          cell(row, colEmail),
		Phone:          cell(row, colPhone),
		Address:        cell(row, colAddress),
		BankName:       cell(row, colBankName),
		BankAccount:    cell(row, colBankAccount),
		Swift:          cell(row, colSwift),
		Bik:            cell(row, colBik),
		CorrAccount:    cell(row, colCorrAccount),
		Inn:            cell(row, colInn),
		Ogrnip:         cell(row, colOgrnip),
		PassportSeries: cell(row, colPassportSeries),
		PassportNumber: cell(row, colPassportNumber),
		Mags:           cell(row, colMags),
		InvoiceNumber:  invoiceNumber,
		Telegram:       cell(row, colTelegram),
		SecretCode:     cell(row, colSecretCode),
	}
}

func contractorToRow(c *entity.Contractor) []any {
	row := make([]any, contractorCols)
	row[colID] = c.ID
	row[colType] = string(c.Type)
	row[colNameRU] = c.NameRU
	row[colNameEN] = c.NameEN
	row[colAliases] = strings.Join(c.Aliases, "|")
	row[colRole] = string(c.RoleCode)
	row[colEmail] = c.Email
	row[colPhone] = c.Phone
	row[colAddress] = c.Address
	row[colBankName] = c.BankName
	row[colBankAccount] = c.BankAccount
	row[colSwift] = c.Swift
	row[colBik] = c.Bik
	row[colCorrAccount] = c.CorrAccount
	row[colInn] = c.Inn
	row[colOgrnip] = c.Ogrnip
	row[colPassportSeries] = c.PassportSeries
	row[colPassportNumber] = c.PassportNumber
	row[colMags] = c.Mags
	row[colInvoiceNumber] = strconv.Itoa(c.InvoiceNumber)
	row[colTelegram] = c.Telegram
	row[colSecretCode] = c.SecretCode
	return row
}

// contractorRowRange addresses one data row. Data starts at sheet row 2.
func contractorRowRange(rowIdx int) string {
	n := rowIdx + 2
	return fmt.Sprintf("Contractors!A%d:V%d", n, n)
}

func (s *Service) findRow(ctx context.Context, match func(*entity.Contractor) bool) (*entity.Contractor, int, error) {
	rows, err := s.readRange(ctx, contractorsRange)
	if err != nil {
		return nil, 0, err
	}
	for i, row := range rows {
		c := rowToContractor(row)
		if match(c) {
			return c, i, nil
		}
	}
	return nil, 0, entity.ErrContractorNotFound
}

func (s *Service) FindByID(ctx context.Context, contractorID string) (*entity.Contractor, error) {
	c, _, err := s.findRow(ctx, func(c *entity.Contractor) bool {
		return c.ID == contractorID
	})
	return c, err
}

func (s *Service) FindByTelegramID(ctx context.Context, telegramID string) (*entity.Contractor, error) {
	c, _, err := s.findRow(ctx, func(c *entity.Contractor) bool {
		return c.Telegram != "" && c.Telegram == telegramID
	})
	return c, err
}

// FuzzyFind matches the query against every name a contractor is known by,
// case-insensitively and in both directions, so "Ваня" finds "Иван" aliases
// and partial surnames still hit.
func (s *Service) FuzzyFind(ctx context.Context, name string) ([]entity.Contractor, error) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return nil, nil
	}

	rows, err := s.readRange(ctx, contractorsRange)
	if err != nil {
		return nil, err
	}

	var matches []entity.Contractor
	for _, row := range rows {
		c := rowToContractor(row)
		for _, known := range c.AllNames() {
			lk := strings.ToLower(known)
			if strings.Contains(lk, needle) || strings.Contains(needle, lk) {
				matches = append(matches, *c)
				break
			}
		}
	}
	return matches, nil
}

// Save appends a new contractor row, assigning the next free id when the
// caller left it empty.
func (s *Service) Save(ctx context.Context, c *entity.Contractor) error {
	rows, err := s.readRange(ctx, contractorsRange)
	if err != nil {
		return err
	}
	if c.ID == "" {
		c.ID = fmt.Sprintf("C%03d", len(rows)+1)
	}
	if err := s.appendRow(ctx, contractorsRange, contractorToRow(c)); err != nil {
		return err
	}

	s.log.Info("contractor row appended", slog.String("contractor", c.ID))
	return nil
}

func (s *Service) BindTelegramID(ctx context.Context, contractorID, telegramID string) error {
	c, rowIdx, err := s.findRow(ctx, func(c *entity.Contractor) bool {
		return c.ID == contractorID
	})
	if err != nil {
		return err
	}

	c.Telegram = telegramID
	return s.updateRow(ctx, contractorRowRange(rowIdx), contractorToRow(c))
}

func (s *Service) UpdateField(ctx context.Context, contractorID, field, value string) error {
	c, rowIdx, err := s.findRow(ctx, func(c *entity.Contractor) bool {
		return c.ID == contractorID
	})
	if err != nil {
		return err
	}

	if err := c.SetField(field, value); err != nil {
		return err
	}
	if err := s.updateRow(ctx, contractorRowRange(rowIdx), contractorToRow(c)); err != nil {
		return err
	}

	s.log.Info("contractor field written",
		slog.String("contractor", contractorID),
		slog.String("field", field),
	)
	return nil
}
