package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"lead-intake-bot/internal/domain"
)

// Reply is a transport-independent answer. Notice is a short acknowledgement
// for a pressed button; transports without such a concept may drop it.
type Reply struct {
	Text     string
	Keyboard [][]Button
	Notice   string
}

// Editor is the intake and editing state machine. One call handles one
// inbound event of one user; calls for the same user must not overlap.
type Editor struct {
	store     domain.RecordStore
	sessions  domain.SessionStore
	auth      Authorizer
	menu      *MenuRenderer
	validator *LeadValidator
	inference *Inference
	funnel    *FunnelUsecase
	logger    *slog.Logger
}

func NewEditor(store domain.RecordStore, sessions domain.SessionStore, auth Authorizer, funnel *FunnelUsecase, logger *slog.Logger) *Editor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Editor{
		store:     store,
		sessions:  sessions,
		auth:      auth,
		menu:      NewMenuRenderer(store),
		validator: NewLeadValidator(),
		inference: NewInference(),
		funnel:    funnel,
		logger:    logger,
	}
}

// Start resets the user to intake and prints the lead template.
func (e *Editor) Start(ctx context.Context, userID int64) []Reply {
	if !e.auth.Allowed(userID) {
		return e.deny(userID)
	}
	if err := e.sessions.Save(ctx, domain.NewSession(userID)); err != nil {
		e.logger.Error("session save failed", "user_id", userID, "error", err)
		return text(msgSessionFailed)
	}
	return text(startText)
}

// Cancel drops the session whatever state it was in.
func (e *Editor) Cancel(ctx context.Context, userID int64) []Reply {
	if !e.auth.Allowed(userID) {
		return e.deny(userID)
	}
	if err := e.sessions.Delete(ctx, userID); err != nil {
		e.logger.Error("session delete failed", "user_id", userID, "error", err)
		return text(msgSessionFailed)
	}
	e.funnel.Reach(userID, StepCancelled)
	return text(msgCancelled)
}

func (e *Editor) Algorithm(_ context.Context, userID int64) []Reply {
	if !e.auth.Allowed(userID) {
		return e.deny(userID)
	}
	return text(AlgorithmText)
}

func (e *Editor) UnknownCommand(_ context.Context, userID int64) []Reply {
	if !e.auth.Allowed(userID) {
		return e.deny(userID)
	}
	return text(msgUnknownCommand)
}

// Text handles a plain message: lead text while awaiting a lead, a field
// value while editing.
func (e *Editor) Text(ctx context.Context, userID int64, msg string) []Reply {
	if !e.auth.Allowed(userID) {
		return e.deny(userID)
	}
	s, err := e.sessions.Get(ctx, userID)
	if err != nil {
		e.logger.Error("session load failed", "user_id", userID, "error", err)
		return text(msgSessionFailed)
	}
	msg = strings.TrimSpace(msg)
	if s.State == domain.StateEditing {
		return e.applyPending(ctx, s, msg)
	}
	return e.intake(ctx, s, msg)
}

// Button handles callback data from the editing menu.
func (e *Editor) Button(ctx context.Context, userID int64, data string) []Reply {
	if !e.auth.Allowed(userID) {
		return e.deny(userID)
	}
	s, err := e.sessions.Get(ctx, userID)
	if err != nil {
		e.logger.Error("session load failed", "user_id", userID, "error", err)
		return text(msgSessionFailed)
	}
	tok, err := ParseToken(data)
	if err != nil {
		e.logger.Warn("bad callback data", "user_id", userID, "error", err)
		return text(msgBadCallback)
	}
	if s.State != domain.StateEditing {
		return text(msgNoActiveLead)
	}

	switch tok.Kind {
	case TokenNoop:
		return []Reply{e.menuReply(ctx, tok.Row)}
	case TokenFinish:
		s.Reset()
		if err := e.sessions.Save(ctx, s); err != nil {
			e.logger.Error("session save failed", "user_id", userID, "error", err)
			return text(msgSessionFailed)
		}
		e.funnel.Reach(userID, StepFinished)
		e.logger.Info("lead editing finished", "user_id", userID, "row", tok.Row)
		return text(msgFinished)
	case TokenInput:
		field, ok := domain.ParseFieldCode(tok.Field)
		if !ok || !field.FreeText() {
			e.logger.Warn("unknown input field", "user_id", userID, "field", tok.Field)
			return text(msgUnknownField)
		}
		s.Row = tok.Row
		s.Pending = &domain.PendingInput{Field: field.Code, Row: tok.Row}
		if err := e.sessions.Save(ctx, s); err != nil {
			e.logger.Error("session save failed", "user_id", userID, "error", err)
			return text(msgSessionFailed)
		}
		return text(fmt.Sprintf("Напишите, пожалуйста, %s:", field.Name()))
	default:
		return e.toggle(ctx, s, tok)
	}
}

func (e *Editor) intake(ctx context.Context, s *domain.Session, msg string) []Reply {
	e.funnel.Reach(s.UserID, StepLeadReceived)
	lead := ParseLead(msg)
	if err := e.validator.Validate(lead); err != nil {
		e.funnel.Reach(s.UserID, StepLeadRejected)
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			e.logger.Info("lead rejected", "user_id", s.UserID, "reason", verr.Reason)
			return text(validationTexts[verr.Reason])
		}
		e.logger.Error("lead validation failed", "user_id", s.UserID, "error", err)
		return text(msgInternal)
	}
	e.inference.Enrich(&lead)

	row, err := e.store.AppendRow(ctx, lead.Row())
	if err != nil {
		err = &domain.StoreError{Op: "append row", Err: err}
		e.logger.Error("lead save failed", "user_id", s.UserID, "error", err)
		return text(msgSaveFailed)
	}
	e.funnel.Reach(s.UserID, StepLeadSaved)
	e.logger.Info("lead saved", "user_id", s.UserID, "row", row)

	replies := []Reply{{Text: intakeSummary(lead)}}
	s.State = domain.StateEditing
	s.Row = row
	s.Pending = nil
	if err := e.sessions.Save(ctx, s); err != nil {
		e.logger.Error("session save failed", "user_id", s.UserID, "error", err)
		return append(replies, Reply{Text: msgSessionFailed})
	}
	return append(replies, e.menuReply(ctx, row))
}

func (e *Editor) toggle(ctx context.Context, s *domain.Session, tok CallbackToken) []Reply {
	field, ok := domain.ParseFieldCode(tok.Field)
	if !ok || field.FreeText() {
		e.logger.Warn("unknown toggle field", "user_id", s.UserID, "field", tok.Field)
		return text(msgUnknownField)
	}
	opt, ok := field.Option(tok.Option)
	if !ok {
		e.logger.Warn("unknown toggle option", "user_id", s.UserID, "field", tok.Field, "option", tok.Option)
		return text(msgUnknownOption)
	}

	current, err := e.store.ReadCell(ctx, tok.Row, field.Column)
	if err != nil {
		err = &domain.StoreError{Op: "read cell", Row: tok.Row, Err: err}
		e.logger.Error("toggle read failed", "user_id", s.UserID, "field", field.Code, "error", err)
		return text(msgReadFailed)
	}
	value := opt.Value
	if domain.Matches(current, opt.Value) {
		value = ""
	}
	if err := e.store.WriteCell(ctx, tok.Row, field.Column, value); err != nil {
		err = &domain.StoreError{Op: "write cell", Row: tok.Row, Err: err}
		e.logger.Error("toggle write failed", "user_id", s.UserID, "field", field.Code, "error", err)
		return text(msgUpdateFailed)
	}
	e.funnel.Reach(s.UserID, StepFieldToggled)

	shown := value
	if shown == "" {
		shown = emptyValue
	}
	r := e.menuReply(ctx, tok.Row)
	r.Notice = fmt.Sprintf("%s → %s", field.Name(), shown)
	return []Reply{r}
}

func (e *Editor) applyPending(ctx context.Context, s *domain.Session, msg string) []Reply {
	var field domain.Field
	ok := false
	if s.Pending != nil {
		field, ok = domain.ParseFieldCode(string(s.Pending.Field))
		ok = ok && field.FreeText()
	}
	if !ok {
		s.Reset()
		if err := e.sessions.Save(ctx, s); err != nil {
			e.logger.Error("session save failed", "user_id", s.UserID, "error", err)
			return text(msgSessionFailed)
		}
		return text(msgNoPending)
	}

	row := s.Pending.Row
	value := msg
	if field.Append {
		existing, err := e.store.ReadCell(ctx, row, field.Column)
		if err != nil {
			err = &domain.StoreError{Op: "read cell", Row: row, Err: err}
			e.logger.Error("field read failed", "user_id", s.UserID, "field", field.Code, "error", err)
			return text(msgReadFailed)
		}
		if strings.TrimSpace(existing) != "" {
			value = existing + "; " + msg
		}
	}
	if err := e.store.WriteCell(ctx, row, field.Column, value); err != nil {
		err = &domain.StoreError{Op: "write cell", Row: row, Err: err}
		e.logger.Error("field write failed", "user_id", s.UserID, "field", field.Code, "error", err)
		return text(msgWriteFailed)
	}
	e.funnel.Reach(s.UserID, StepFieldWritten)

	s.Pending = nil
	s.Row = row
	done := Reply{Text: fmt.Sprintf("Отлично, поле «%s» теперь: «%s».", field.Name(), msg)}
	if err := e.sessions.Save(ctx, s); err != nil {
		e.logger.Error("session save failed", "user_id", s.UserID, "error", err)
		// старый указатель на поле не должен принять следующее сообщение
		if err := e.sessions.Delete(ctx, s.UserID); err != nil {
			e.logger.Error("session delete failed", "user_id", s.UserID, "error", err)
		}
		return []Reply{done, {Text: msgSessionLost}}
	}
	return []Reply{done, e.menuReply(ctx, row)}
}

// menuReply renders the menu or, when the row cannot be read, a transient
// error without any keyboard.
func (e *Editor) menuReply(ctx context.Context, row int) Reply {
	m, err := e.menu.Render(ctx, row)
	if err != nil {
		e.logger.Error("menu render failed", "row", row, "error", err)
		return Reply{Text: msgRowReadFailed}
	}
	return Reply{Text: m.Text, Keyboard: m.Rows}
}

func (e *Editor) deny(userID int64) []Reply {
	e.logger.Warn("access denied", "user_id", userID)
	return text(msgUnauthorized)
}

func intakeSummary(lead domain.Lead) string {
	tz, region := lead.Timezone, lead.Region
	if tz == "" {
		tz = notApplied
	}
	if region == "" {
		region = notApplied
	}
	var b strings.Builder
	b.WriteString("Данные лида сохранены!\n\n")
	if phone := lead.PhoneCandidate(); phone != "" {
		fmt.Fprintf(&b, "Телефон: %s\n", FormatPhone(phone))
	}
	fmt.Fprintf(&b, "Определён часовой пояс: %s\n", tz)
	fmt.Fprintf(&b, "Определён регион: %s\n\n", region)
	b.WriteString(FormatUTM(lead.UTM))
	b.WriteString("\nТеперь вы можете уточнить дополнительные поля в меню ниже.")
	return b.String()
}

func text(s string) []Reply { return []Reply{{Text: s}} }
