package domain

import "context"

type ConvState string

const (
	StateAwaitingLead ConvState = "awaiting_lead"
	StateEditing      ConvState = "editing"
)

// PendingInput points at the free-text field the next message goes to.
type PendingInput struct {
	Field FieldCode `json:"field"`
	Row   int       `json:"row"`
}

// Session is transient per-user conversation state. Field values are never
// kept here, only what the bot waits for next.
type Session struct {
	UserID  int64         `json:"user_id"`
	State   ConvState     `json:"state"`
	Row     int           `json:"row,omitempty"`
	Pending *PendingInput `json:"pending,omitempty"`
}

func NewSession(userID int64) *Session {
	return &Session{UserID: userID, State: StateAwaitingLead}
}

// Reset returns the session to intake.
func (s *Session) Reset() {
	s.State = StateAwaitingLead
	s.Row = 0
	s.Pending = nil
}

// SessionStore keeps sessions keyed by user. Get never returns nil: an
// unknown user gets a fresh AwaitingLead session.
type SessionStore interface {
	Get(ctx context.Context, userID int64) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, userID int64) error
}
