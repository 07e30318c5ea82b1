package contractor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"IzdatBot/bot/flow"
	"IzdatBot/bot/replies"
	"IzdatBot/bot/ui"
	"IzdatBot/entity"
	"IzdatBot/internal/lib/sl"
)

// Handlers holds the flow's collaborators.
type Handlers struct {
	contractors Contractors
	parser      Parser
	invoices    Invoices
	codec       *flow.Codec
	log         *slog.Logger
}

// Register adds the flow definition and binds its handlers.
func Register(reg *flow.Registry, codec *flow.Codec, contractors Contractors, parser Parser, invoices Invoices, log *slog.Logger) error {
	if err := reg.AddFlow(Definition()); err != nil {
		return err
	}

	h := &Handlers{
		contractors: contractors,
		parser:      parser,
		invoices:    invoices,
		codec:       codec,
		log:         log.With(sl.Module("flows.contractor")),
	}

	bindings := map[string]flow.Handler{
		handlerLookup:      h.Lookup,
		handlerVerify:      h.Verify,
		handlerChooseType:  h.ChooseType,
		handlerCollectData: h.CollectData,
		handlerAmount:      h.Amount,
	}
	for name, fn := range bindings {
		if err := reg.Bind(name, fn); err != nil {
			return err
		}
	}
	return nil
}

// Lookup resolves who the user is: by bound telegram id, by picking
// themselves from fuzzy matches, or by falling through to registration.
func (h *Handlers) Lookup(ctx context.Context, req flow.Request) flow.Result {
	if payload := req.Event.Callback(); payload != nil {
		switch payload.Action {
		case actionPick:
			return flow.Result{
				Render:  flow.Render(replies.Verification.AskCode),
				Outcome: flow.MoveTo(stateVerification),
				Context: map[string]any{ctxContractorID: payload.Argument, ctxAttempts: 0},
			}
		case actionNone:
			return h.beginRegistration()
		default:
			return flow.Result{
				Render:  flow.Render(replies.Lookup.PickYourself),
				Outcome: flow.Stay(),
			}
		}
	}

	known, err := h.contractors.FindByTelegramID(ctx, req.UserID)
	if err == nil {
		return h.greetKnown(ctx, known)
	}
	if !errors.Is(err, entity.ErrContractorNotFound) {
		return flow.Result{Err: fmt.Errorf("lookup by telegram id: %w", err)}
	}

	name := strings.TrimSpace(req.Event.Text())
	matches, err := h.contractors.FuzzyFind(ctx, name)
	if err != nil {
		return flow.Result{Err: fmt.Errorf("fuzzy find %q: %w", name, err)}
	}
	if len(matches) == 0 {
		return h.beginRegistration()
	}

	choices := make([]ui.Choice, 0, len(matches)+1)
	for _, m := range matches {
		choices = append(choices, ui.Choice{Label: m.DisplayName(), Arg: m.ID})
	}
	rows, err := ui.Selection(h.codec, Namespace, actionPick, choices)
	if err != nil {
		return flow.Result{Err: fmt.Errorf("build match keyboard: %w", err)}
	}
	noneRow, err := ui.Row(h.codec, Namespace, actionNone, []ui.Choice{{Label: replies.Lookup.NotMe, Arg: "-"}})
	if err != nil {
		return flow.Result{Err: fmt.Errorf("build none button: %w", err)}
	}
	rows = append(rows, noneRow)

	return flow.Result{
		Render: flow.RenderInstruction{
			Text:    replies.Lookup.PickYourself,
			Buttons: rows,
		},
		Outcome: flow.Stay(),
	}
}

// Verify checks the secret code, binding the telegram id on success.
// Three wrong codes cancel the conversation.
func (h *Handlers) Verify(ctx context.Context, req flow.Request) flow.Result {
	// A re-delivered button tap is not a code attempt.
	if req.Event.IsCallback() {
		return flow.Result{
			Render:  flow.Render(replies.Verification.AskCode),
			Outcome: flow.Stay(),
		}
	}

	contractorID := req.Context.GetString(ctxContractorID)
	c, err := h.contractors.FindByID(ctx, contractorID)
	if err != nil {
		return flow.Result{Err: fmt.Errorf("load contractor %s: %w", contractorID, err)}
	}

	code := strings.TrimSpace(req.Event.Text())
	if code == "" || !strings.EqualFold(code, c.SecretCode) {
		attempts := req.Context.GetInt(ctxAttempts) + 1
		if attempts >= maxCodeAttempts {
			h.log.Warn("verification attempts exhausted",
				slog.String("contractor", contractorID),
			)
			return flow.Result{
				Render:  flow.Render(replies.Verification.TooManyTries),
				Outcome: flow.Cancel(),
			}
		}
		return flow.Result{
			Render:  flow.Render(replies.Verification.WrongCode),
			Outcome: flow.Stay(),
			Context: map[string]any{ctxAttempts: attempts},
		}
	}

	if err := h.contractors.BindTelegramID(ctx, c.ID, req.UserID); err != nil {
		return flow.Result{Err: fmt.Errorf("bind telegram id: %w", err)}
	}
	h.log.Info("contractor verified", slog.String("contractor", c.ID))

	return h.maybeAskAmount(ctx, c, replies.Verification.Verified)
}

// ChooseType reads the 1/2/3 answer and asks for the matching data set.
func (h *Handlers) ChooseType(_ context.Context, req flow.Request) flow.Result {
	var t entity.ContractorType
	switch strings.TrimSpace(req.Event.Text()) {
	case "1":
		t = entity.TypeSamozanyaty
	case "2":
		t = entity.TypeIP
	case "3":
		t = entity.TypeGlobal
	default:
		return flow.Result{
			Render:  flow.Render(replies.Registration.BadType),
			Outcome: flow.Stay(),
		}
	}

	return flow.Result{
		Render:  flow.Render(replies.DataPrompt(t)),
		Outcome: flow.MoveTo(stateData),
		Context: map[string]any{ctxType: string(t)},
	}
}

// CollectData runs the LLM extraction loop: parse the message, merge with
// what was already collected and either ask for the rest or save the row.
func (h *Handlers) CollectData(ctx context.Context, req flow.Request) flow.Result {
	t := entity.ContractorType(req.Context.GetString(ctxType))

	parsed, err := h.parser.ParseFields(ctx, req.Event.Text(), entity.FieldNames(t))
	if err != nil {
		return flow.Result{Err: fmt.Errorf("parse contractor data: %w", err)}
	}

	collected := collectedFields(req.Context)
	for k, v := range parsed {
		if strings.TrimSpace(v) != "" {
			collected[k] = v
		}
	}

	c := &entity.Contractor{Type: t, Telegram: req.UserID}
	for name, value := range collected {
		if err := c.SetField(name, value); err != nil {
			return flow.Result{Err: err}
		}
	}

	missing, err := c.Validate()
	if err != nil {
		h.log.Debug("collected data failed validation", sl.Err(err))
		return flow.Result{
			Render:  flow.Render(replies.Registration.Invalid),
			Outcome: flow.Stay(),
			Context: map[string]any{ctxCollected: asAnyMap(collected)},
		}
	}
	if len(missing) > 0 {
		return flow.Result{
			Render:  flow.Render(replies.MissingFields(missing)),
			Outcome: flow.Stay(),
			Context: map[string]any{ctxCollected: asAnyMap(collected)},
		}
	}

	if err := h.contractors.Save(ctx, c); err != nil {
		return flow.Result{Err: fmt.Errorf("save contractor: %w", err)}
	}
	h.log.Info("contractor registered",
		slog.String("contractor", c.ID),
		slog.String("type", string(t)),
	)

	return h.maybeAskAmount(ctx, c, replies.Registration.Saved)
}

// Amount parses the payout sum and records the invoice.
func (h *Handlers) Amount(ctx context.Context, req flow.Request) flow.Result {
	raw := strings.ReplaceAll(strings.TrimSpace(req.Event.Text()), ",", ".")
	amount, err := strconv.ParseFloat(raw, 64)
	if err != nil || amount <= 0 {
		return flow.Result{
			Render:  flow.Render(replies.Invoice.BadAmount),
			Outcome: flow.Stay(),
		}
	}

	contractorID := req.Context.GetString(ctxContractorID)
	inv, err := h.invoices.Create(ctx, contractorID, amount)
	if err != nil {
		return flow.Result{Err: fmt.Errorf("create invoice: %w", err)}
	}
	h.log.Info("invoice recorded",
		slog.String("contractor", contractorID),
		slog.Int("number", inv.InvoiceNumber),
	)

	return flow.Result{
		Render:  flow.Render(replies.InvoiceCreated(inv)),
		Outcome: flow.Complete(),
	}
}

// beginRegistration moves an unknown user into the registration branch.
func (h *Handlers) beginRegistration() flow.Result {
	return flow.Result{
		Render:  flow.Render(replies.Registration.Begin + "\n\n" + replies.Registration.TypePrompt),
		Outcome: flow.MoveTo(stateType),
	}
}

// greetKnown welcomes an already-bound contractor and moves on to a pending
// invoice if one awaits an amount.
func (h *Handlers) greetKnown(ctx context.Context, c *entity.Contractor) flow.Result {
	return h.maybeAskAmount(ctx, c, replies.Welcome(c.DisplayName()))
}

// maybeAskAmount completes the flow with the given greeting, or detours to
// the amount state when a pending invoice exists.
func (h *Handlers) maybeAskAmount(ctx context.Context, c *entity.Contractor, greeting string) flow.Result {
	pending, err := h.invoices.Pending(ctx, c.ID)
	if err != nil {
		return flow.Result{Err: fmt.Errorf("pending invoices for %s: %w", c.ID, err)}
	}
	if len(pending) == 0 {
		return flow.Result{
			Render:  flow.Render(greeting),
			Outcome: flow.Complete(),
		}
	}

	text := greeting + "\n\n" +
		replies.PendingInvoiceNotice(pending[0].Month) + "\n" +
		replies.Invoice.AskAmount
	return flow.Result{
		Render:  flow.Render(text),
		Outcome: flow.MoveTo(stateAmount),
		Context: map[string]any{ctxContractorID: c.ID},
	}
}

// collectedFields reads the accumulated field map back out of the session
// context. Values arrive as map[string]any after a store round-trip.
func collectedFields(c flow.Context) map[string]string {
	out := make(map[string]string)
	raw, ok := c[ctxCollected]
	if !ok {
		return out
	}
	switch m := raw.(type) {
	case map[string]any:
		for k, v := range m {
			if s, ok := v.(string); ok {
				out[k] = s
			}
		}
	case map[string]string:
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

func asAnyMap(m map[string]string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
