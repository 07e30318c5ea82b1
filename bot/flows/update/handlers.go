package update

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"IzdatBot/bot/flow"
	"IzdatBot/bot/replies"
	"IzdatBot/entity"
	"IzdatBot/internal/lib/sl"
)

// Contractors is the slice of the contractor repository this flow needs.
type Contractors interface {
	FindByTelegramID(ctx context.Context, telegramID string) (*entity.Contractor, error)
	UpdateField(ctx context.Context, contractorID, field, value string) error
}

// Handlers holds the flow's collaborators.
type Handlers struct {
	contractors Contractors
	log         *slog.Logger
}

// Register adds the flow definition and binds its handlers.
func Register(reg *flow.Registry, codec *flow.Codec, contractors Contractors, log *slog.Logger) error {
	def, err := Definition(codec)
	if err != nil {
		return err
	}
	if err := reg.AddFlow(def); err != nil {
		return err
	}

	h := &Handlers{
		contractors: contractors,
		log:         log.With(sl.Module("flows.update")),
	}
	if err := reg.Bind(handlerChooseField, h.ChooseField); err != nil {
		return err
	}
	return reg.Bind(handlerSetValue, h.SetValue)
}

// ChooseField expects a field button press and records the chosen field.
func (h *Handlers) ChooseField(_ context.Context, req flow.Request) flow.Result {
	payload := req.Event.Callback()
	if payload == nil || payload.Action != "field" || !isEditable(payload.Argument) {
		return flow.Result{
			Render:  flow.Render(replies.Update.UseButtons),
			Outcome: flow.Stay(),
		}
	}

	return flow.Result{
		Render:  flow.Render(replies.Update.AskValue),
		Outcome: flow.MoveTo(stateValue),
		Context: map[string]any{"field": payload.Argument},
	}
}

// SetValue validates the new value and writes it through the repository.
func (h *Handlers) SetValue(ctx context.Context, req flow.Request) flow.Result {
	if req.Event.IsCallback() {
		return flow.Result{
			Render:  flow.Render(replies.Update.AskValue),
			Outcome: flow.Stay(),
		}
	}

	field := req.Context.GetString("field")
	value := strings.TrimSpace(req.Event.Text())
	if !validValue(field, value) {
		return flow.Result{
			Render:  flow.Render(replies.Update.BadValue),
			Outcome: flow.Stay(),
		}
	}

	contractor, err := h.contractors.FindByTelegramID(ctx, req.UserID)
	if err != nil {
		return flow.Result{Err: fmt.Errorf("find contractor: %w", err)}
	}
	if err := h.contractors.UpdateField(ctx, contractor.ID, field, value); err != nil {
		return flow.Result{Err: fmt.Errorf("update field %s: %w", field, err)}
	}

	h.log.Info("contractor field updated",
		slog.String("contractor", contractor.ID),
		slog.String("field", field),
	)

	return flow.Result{
		Render:  flow.Render(replies.Update.Saved),
		Outcome: flow.Complete(),
	}
}

func isEditable(field string) bool {
	for _, ch := range editableFields {
		if ch.Arg == field {
			return true
		}
	}
	return false
}

func validValue(field, value string) bool {
	if value == "" {
		return false
	}
	switch field {
	case "phone":
		digits := 0
		for _, r := range value {
			switch {
			case r >= '0' && r <= '9':
				digits++
			case r == '+' || r == ' ' || r == '-' || r == '(' || r == ')':
			default:
				return false
			}
		}
		return digits >= 7
	case "email":
		at := strings.Index(value, "@")
		return at > 0 && strings.Contains(value[at:], ".")
	case "bank_account":
		return len(value) >= 8 && !strings.ContainsAny(value, " \t")
	default:
		return true
	}
}
