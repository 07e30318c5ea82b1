// Package sheets implements the contractor and invoice repositories on the
// publisher's Google Spreadsheet, which stays the source of truth for
// requisites and payouts.
package sheets

import (
	"IzdatBot/internal/config"
	"IzdatBot/internal/lib/sl"
	"context"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const (
	contractorsRange = "Contractors!A2:U"
	invoicesRange    = "Invoices!A2:F"
)

type Service struct {
	svc           *sheets.Service
	spreadsheetId string
	log           *slog.Logger
}

func NewSheetsService(ctx context.Context, conf *config.Config, logger *slog.Logger) (*Service, error) {
	data, err := os.ReadFile(conf.Sheets.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read sheets credentials: %w", err)
	}
	creds, err := google.CredentialsFromJSON(ctx, data, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse sheets credentials: %w", err)
	}
	svc, err := sheets.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("create sheets client: %w", err)
	}

	return &Service{
		svc:           svc,
		spreadsheetId: conf.Sheets.SpreadsheetId,
		log:           logger.With(sl.Module("sheets service")),
	}, nil
}

func (s *Service) readRange(ctx context.Context, readRange string) ([][]any, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetId, readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", readRange, err)
	}
	return resp.Values, nil
}

func (s *Service) appendRow(ctx context.Context, appendRange string, row []any) error {
	_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetId, appendRange, &sheets.ValueRange{
		Values: [][]any{row},
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to %s: %w", appendRange, err)
	}
	return nil
}

func (s *Service) updateRow(ctx context.Context, updateRange string, row []any) error {
	_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetId, updateRange, &sheets.ValueRange{
		Values: [][]any{row},
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", updateRange, err)
	}
	return nil
}
