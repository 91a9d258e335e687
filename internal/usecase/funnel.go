package usecase

import "errors"

// Step is a point in the intake/editing workflow reached by a user.
type Step string

const (
	StepLeadReceived Step = "lead_received"
	StepLeadRejected Step = "lead_rejected"
	StepLeadSaved    Step = "lead_saved"
	StepFieldToggled Step = "field_toggled"
	StepFieldWritten Step = "field_written"
	StepFinished     Step = "finished"
	StepCancelled    Step = "cancelled"
)

// Steps lists all steps in workflow order.
func Steps() []Step {
	return []Step{
		StepLeadReceived,
		StepLeadRejected,
		StepLeadSaved,
		StepFieldToggled,
		StepFieldWritten,
		StepFinished,
		StepCancelled,
	}
}

type FunnelRepository interface {
	Hit(step Step, userID int64) error
}

// FunnelRepositories fans one hit out to every recorder.
type FunnelRepositories []FunnelRepository

func (rs FunnelRepositories) Hit(step Step, userID int64) error {
	var errs []error
	for _, r := range rs {
		if err := r.Hit(step, userID); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type FunnelUsecase struct {
	repo FunnelRepository
}

func NewFunnelUsecase(repo FunnelRepository) *FunnelUsecase {
	return &FunnelUsecase{repo: repo}
}

// Reach records a step. A nil usecase or repo is a no-op, and recording
// errors never affect the conversation.
func (u *FunnelUsecase) Reach(userID int64, step Step) {
	if u == nil || u.repo == nil || step == "" {
		return
	}
	_ = u.repo.Hit(step, userID)
}
