package contractor_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"IzdatBot/bot/flow"
	"IzdatBot/bot/flows/contractor"
	"IzdatBot/bot/replies"
	"IzdatBot/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeContractors struct {
	byID       map[string]*entity.Contractor
	byTelegram map[string]*entity.Contractor

	saved []*entity.Contractor
	bound map[string]string
}

func newFakeContractors(list ...*entity.Contractor) *fakeContractors {
	f := &fakeContractors{
		byID:       make(map[string]*entity.Contractor),
		byTelegram: make(map[string]*entity.Contractor),
		bound:      make(map[string]string),
	}
	for _, c := range list {
		f.byID[c.ID] = c
		if c.Telegram != "" {
			f.byTelegram[c.Telegram] = c
		}
	}
	return f
}

func (f *fakeContractors) FindByID(_ context.Context, id string) (*entity.Contractor, error) {
	if c, ok := f.byID[id]; ok {
		return c, nil
	}
	return nil, entity.ErrContractorNotFound
}

func (f *fakeContractors) FindByTelegramID(_ context.Context, telegramID string) (*entity.Contractor, error) {
	if c, ok := f.byTelegram[telegramID]; ok {
		return c, nil
	}
	return nil, entity.ErrContractorNotFound
}

func (f *fakeContractors) FuzzyFind(_ context.Context, name string) ([]entity.Contractor, error) {
	var out []entity.Contractor
	needle := strings.ToLower(name)
	for _, c := range f.byID {
		for _, known := range c.AllNames() {
			if strings.Contains(strings.ToLower(known), needle) {
				out = append(out, *c)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeContractors) Save(_ context.Context, c *entity.Contractor) error {
	if c.ID == "" {
		c.ID = fmt.Sprintf("N%03d", len(f.saved)+1)
	}
	f.saved = append(f.saved, c)
	f.byID[c.ID] = c
	return nil
}

func (f *fakeContractors) BindTelegramID(_ context.Context, contractorID, telegramID string) error {
	f.bound[contractorID] = telegramID
	return nil
}

type fakeParser struct {
	results []map[string]string
	calls   int
}

func (f *fakeParser) ParseFields(_ context.Context, _ string, _ []string) (map[string]string, error) {
	if f.calls >= len(f.results) {
		return map[string]string{}, nil
	}
	res := f.results[f.calls]
	f.calls++
	return res, nil
}

type fakeInvoices struct {
	pending map[string][]entity.Invoice
	created []*entity.Invoice
}

func (f *fakeInvoices) Pending(_ context.Context, contractorID string) ([]entity.Invoice, error) {
	return f.pending[contractorID], nil
}

func (f *fakeInvoices) Create(_ context.Context, contractorID string, amount float64) (*entity.Invoice, error) {
	inv := &entity.Invoice{
		ContractorID:  contractorID,
		InvoiceNumber: len(f.created) + 1,
		Month:         "2026-08",
		Amount:        amount,
		Currency:      entity.CurrencyRUB,
		Status:        entity.InvoiceDraft,
	}
	f.created = append(f.created, inv)
	return inv, nil
}

func newOnboardingEngine(t *testing.T, contractors *fakeContractors, parser *fakeParser, invoices *fakeInvoices) *flow.Engine {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := flow.NewRegistry()
	require.NoError(t, contractor.Register(reg, flow.NewCodec(), contractors, parser, invoices, log))
	require.NoError(t, reg.Validate())

	return flow.NewEngine(reg, flow.NewMemoryStore(), log)
}

func TestOnboarding_KnownContractorGreeted(t *testing.T) {
	known := &entity.Contractor{ID: "A017", Type: entity.TypeSamozanyaty, NameRU: "Иван Иванов", Telegram: "42"}
	contractors := newFakeContractors(known)
	invoices := &fakeInvoices{pending: map[string][]entity.Invoice{}}
	eng := newOnboardingEngine(t, contractors, &fakeParser{}, invoices)
	ctx := context.Background()

	render := eng.Handle(ctx, "42", flow.NewTextEvent("/start"))
	assert.Equal(t, replies.Greeting, render.Text)

	render = eng.Handle(ctx, "42", flow.NewTextEvent("Иван"))
	assert.Equal(t, replies.Welcome("Иван Иванов"), render.Text)
}

func TestOnboarding_VerificationHappyPath(t *testing.T) {
	unbound := &entity.Contractor{ID: "A017", Type: entity.TypeSamozanyaty, NameRU: "Иван Иванов", SecretCode: "7421"}
	contractors := newFakeContractors(unbound)
	invoices := &fakeInvoices{pending: map[string][]entity.Invoice{}}
	eng := newOnboardingEngine(t, contractors, &fakeParser{}, invoices)
	ctx := context.Background()

	eng.Handle(ctx, "42", flow.NewTextEvent("/start"))

	render := eng.Handle(ctx, "42", flow.NewTextEvent("Иван"))
	assert.Equal(t, replies.Lookup.PickYourself, render.Text)
	require.NotEmpty(t, render.Buttons)

	render = eng.Handle(ctx, "42", flow.NewCallbackEvent("ctr:pick:A017"))
	assert.Equal(t, replies.Verification.AskCode, render.Text)

	render = eng.Handle(ctx, "42", flow.NewTextEvent("7421"))
	assert.Equal(t, replies.Verification.Verified, render.Text)
	assert.Equal(t, "42", contractors.bound["A017"])
}

func TestOnboarding_VerificationAttemptsExhausted(t *testing.T) {
	unbound := &entity.Contractor{ID: "A017", Type: entity.TypeSamozanyaty, NameRU: "Иван Иванов", SecretCode: "7421"}
	contractors := newFakeContractors(unbound)
	invoices := &fakeInvoices{pending: map[string][]entity.Invoice{}}
	eng := newOnboardingEngine(t, contractors, &fakeParser{}, invoices)
	ctx := context.Background()

	eng.Handle(ctx, "42", flow.NewTextEvent("/start"))
	eng.Handle(ctx, "42", flow.NewTextEvent("Иван"))
	eng.Handle(ctx, "42", flow.NewCallbackEvent("ctr:pick:A017"))

	render := eng.Handle(ctx, "42", flow.NewTextEvent("0000"))
	assert.Equal(t, replies.Verification.WrongCode, render.Text)
	render = eng.Handle(ctx, "42", flow.NewTextEvent("1111"))
	assert.Equal(t, replies.Verification.WrongCode, render.Text)
	render = eng.Handle(ctx, "42", flow.NewTextEvent("2222"))
	assert.Equal(t, replies.Verification.TooManyTries, render.Text)

	assert.Empty(t, contractors.bound)

	// cancelled flows delete the session; plain text is a no-session case now
	render = eng.Handle(ctx, "42", flow.NewTextEvent("7421"))
	assert.NotEqual(t, replies.Verification.Verified, render.Text)
}

func TestOnboarding_VerificationIgnoresDuplicateTap(t *testing.T) {
	unbound := &entity.Contractor{ID: "A017", Type: entity.TypeSamozanyaty, NameRU: "Иван Иванов", SecretCode: "7421"}
	contractors := newFakeContractors(unbound)
	invoices := &fakeInvoices{pending: map[string][]entity.Invoice{}}
	eng := newOnboardingEngine(t, contractors, &fakeParser{}, invoices)
	ctx := context.Background()

	eng.Handle(ctx, "42", flow.NewTextEvent("/start"))
	eng.Handle(ctx, "42", flow.NewTextEvent("Иван"))
	eng.Handle(ctx, "42", flow.NewCallbackEvent("ctr:pick:A017"))

	// re-delivered button taps re-ask for the code, they are not attempts
	for i := 0; i < 3; i++ {
		render := eng.Handle(ctx, "42", flow.NewCallbackEvent("ctr:pick:A017"))
		assert.Equal(t, replies.Verification.AskCode, render.Text)
	}

	render := eng.Handle(ctx, "42", flow.NewTextEvent("7421"))
	assert.Equal(t, replies.Verification.Verified, render.Text)
	assert.Equal(t, "42", contractors.bound["A017"])
}

func TestOnboarding_VerificationCodeCaseInsensitive(t *testing.T) {
	unbound := &entity.Contractor{ID: "A017", Type: entity.TypeSamozanyaty, NameRU: "Иван Иванов", SecretCode: "AB12cd"}
	contractors := newFakeContractors(unbound)
	invoices := &fakeInvoices{pending: map[string][]entity.Invoice{}}
	eng := newOnboardingEngine(t, contractors, &fakeParser{}, invoices)
	ctx := context.Background()

	eng.Handle(ctx, "42", flow.NewTextEvent("/start"))
	eng.Handle(ctx, "42", flow.NewTextEvent("Иван"))
	eng.Handle(ctx, "42", flow.NewCallbackEvent("ctr:pick:A017"))

	render := eng.Handle(ctx, "42", flow.NewTextEvent("ab12CD"))
	assert.Equal(t, replies.Verification.Verified, render.Text)
	assert.Equal(t, "42", contractors.bound["A017"])
}

func TestOnboarding_RegistrationCollectLoop(t *testing.T) {
	contractors := newFakeContractors()
	parser := &fakeParser{results: []map[string]string{
		{
			"name_en":   "Jane Roe",
			"address":   "12 Rue Example, Paris",
			"bank_name": "BNP",
		},
		{
			"bank_account": "FR7630006000011234567890189",
			"swift":        "BNPAFRPP",
		},
	}}
	invoices := &fakeInvoices{pending: map[string][]entity.Invoice{}}
	eng := newOnboardingEngine(t, contractors, parser, invoices)
	ctx := context.Background()

	eng.Handle(ctx, "42", flow.NewTextEvent("/start"))

	render := eng.Handle(ctx, "42", flow.NewTextEvent("Jane"))
	assert.Contains(t, render.Text, replies.Registration.Begin)
	assert.Contains(t, render.Text, replies.Registration.TypePrompt)

	render = eng.Handle(ctx, "42", flow.NewTextEvent("3"))
	assert.Contains(t, render.Text, "Отправьте одним сообщением")

	render = eng.Handle(ctx, "42", flow.NewTextEvent("Jane Roe, 12 Rue Example, Paris, BNP"))
	assert.Contains(t, render.Text, "Осталось указать")
	assert.Contains(t, render.Text, "BIC/SWIFT")

	render = eng.Handle(ctx, "42", flow.NewTextEvent("IBAN FR76..., SWIFT BNPAFRPP"))
	assert.Equal(t, replies.Registration.Saved, render.Text)

	require.Len(t, contractors.saved, 1)
	saved := contractors.saved[0]
	assert.Equal(t, entity.TypeGlobal, saved.Type)
	assert.Equal(t, "Jane Roe", saved.NameEN)
	assert.Equal(t, "42", saved.Telegram)
	assert.Equal(t, "BNPAFRPP", saved.Swift)
}

func TestOnboarding_BadTypeAnswer(t *testing.T) {
	contractors := newFakeContractors()
	eng := newOnboardingEngine(t, contractors, &fakeParser{}, &fakeInvoices{})
	ctx := context.Background()

	eng.Handle(ctx, "42", flow.NewTextEvent("/start"))
	eng.Handle(ctx, "42", flow.NewTextEvent("Nobody Known"))

	render := eng.Handle(ctx, "42", flow.NewTextEvent("да"))
	assert.Equal(t, replies.Registration.BadType, render.Text)
}

func TestOnboarding_PendingInvoiceAsksAmount(t *testing.T) {
	known := &entity.Contractor{ID: "A017", Type: entity.TypeSamozanyaty, NameRU: "Иван Иванов", Telegram: "42"}
	contractors := newFakeContractors(known)
	invoices := &fakeInvoices{pending: map[string][]entity.Invoice{
		"A017": {{ContractorID: "A017", Month: "2026-08", Status: entity.InvoiceDraft}},
	}}
	eng := newOnboardingEngine(t, contractors, &fakeParser{}, invoices)
	ctx := context.Background()

	eng.Handle(ctx, "42", flow.NewTextEvent("/start"))

	render := eng.Handle(ctx, "42", flow.NewTextEvent("Иван"))
	assert.Contains(t, render.Text, replies.Welcome("Иван Иванов"))
	assert.Contains(t, render.Text, replies.Invoice.AskAmount)

	render = eng.Handle(ctx, "42", flow.NewTextEvent("сколько-то"))
	assert.Equal(t, replies.Invoice.BadAmount, render.Text)

	render = eng.Handle(ctx, "42", flow.NewTextEvent("15000,50"))
	assert.Equal(t, replies.InvoiceCreated(&entity.Invoice{
		InvoiceNumber: 1, Amount: 15000.50, Currency: entity.CurrencyRUB,
	}), render.Text)

	require.Len(t, invoices.created, 1)
	assert.InDelta(t, 15000.50, invoices.created[0].Amount, 0.001)
}
