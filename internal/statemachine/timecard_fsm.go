package statemachine

import (
	"context"
	"errors"
	"fmt"

	"github.com/looplab/fsm"
	"github.com/sjperalta/timecard-api/internal/models"
)

// Timecard lifecycle events
const (
	EventSubmit    = "submit"
	EventApprove   = "approve"
	EventReject    = "reject"
	EventAdminEdit = "admin_edit"
	EventReopen    = "reopen"
	EventResubmit  = "resubmit"
	EventUnapprove = "unapprove"
)

// ErrInvalidTransition is returned when a transition is not legal from the
// current state or not permitted for the actor
var ErrInvalidTransition = errors.New("invalid timecard transition")

// Party describes who may fire an event
type Party int

const (
	// PartyOwner is the timecard owner
	PartyOwner Party = iota
	// PartyApprover is any approver or admin
	PartyApprover
)

type transition struct {
	event string
	src   []string
	dst   string
	party Party
}

var transitions = []transition{
	// draft/edited_draft → submitted
	{EventSubmit, []string{models.TimecardStatusDraft, models.TimecardStatusEditedDraft}, models.TimecardStatusSubmitted, PartyOwner},

	// submitted → approved
	{EventApprove, []string{models.TimecardStatusSubmitted}, models.TimecardStatusApproved, PartyApprover},

	// submitted → rejected (with or without edits)
	{EventReject, []string{models.TimecardStatusSubmitted}, models.TimecardStatusRejected, PartyApprover},

	// draft/edited_draft → edited_draft (approver edits a draft directly)
	{EventAdminEdit, []string{models.TimecardStatusDraft, models.TimecardStatusEditedDraft}, models.TimecardStatusEditedDraft, PartyApprover},

	// rejected → draft
	{EventReopen, []string{models.TimecardStatusRejected}, models.TimecardStatusDraft, PartyOwner},

	// rejected → submitted
	{EventResubmit, []string{models.TimecardStatusRejected}, models.TimecardStatusSubmitted, PartyOwner},

	// approved → submitted (administrative correction)
	{EventUnapprove, []string{models.TimecardStatusApproved}, models.TimecardStatusSubmitted, PartyApprover},
}

func events() fsm.Events {
	evts := make(fsm.Events, 0, len(transitions))
	for _, t := range transitions {
		evts = append(evts, fsm.EventDesc{Name: t.event, Src: t.src, Dst: t.dst})
	}
	return evts
}

func lookup(event string) (transition, bool) {
	for _, t := range transitions {
		if t.event == event {
			return t, true
		}
	}
	return transition{}, false
}

// EventFor returns the event that moves a timecard from current to requested
func EventFor(current, requested string) (string, bool) {
	for _, t := range transitions {
		if t.dst != requested {
			continue
		}
		for _, s := range t.src {
			if s == current {
				return t.event, true
			}
		}
	}
	return "", false
}

// Resolve returns the event a request fires from current. Submitting a
// rejected timecard is a resubmit.
func Resolve(event, current string) string {
	if event == EventSubmit && current == models.TimecardStatusRejected {
		return EventResubmit
	}
	return event
}

// PartyFor returns who may fire the event
func PartyFor(event string) (Party, bool) {
	t, ok := lookup(event)
	return t.party, ok
}

// Permits reports whether a role may act as the given party. Ownership of
// the specific timecard is checked by TimecardFSM.
func Permits(party Party, role string) bool {
	switch party {
	case PartyOwner:
		return role == models.RoleUser || role == models.RoleApprover || role == models.RoleAdmin
	case PartyApprover:
		return role == models.RoleApprover || role == models.RoleAdmin
	}
	return false
}

// CanTransition reports whether the edge current → requested exists and the
// actor's role may request it
func CanTransition(current, requested, role string) bool {
	event, ok := EventFor(current, requested)
	if !ok {
		return false
	}
	party, _ := PartyFor(event)
	return Permits(party, role)
}

// TimecardFSM wraps a timecard with its state machine
type TimecardFSM struct {
	timecard *models.Timecard
	fsm      *fsm.FSM
}

// NewTimecardFSM creates a new timecard state machine
func NewTimecardFSM(timecard *models.Timecard) *TimecardFSM {
	return &TimecardFSM{
		timecard: timecard,
		fsm:      fsm.NewFSM(timecard.Status, events(), fsm.Callbacks{}),
	}
}

// Fire validates and applies event on behalf of actor. On error the timecard
// is left untouched.
func (t *TimecardFSM) Fire(ctx context.Context, event string, actor models.Actor) error {
	tr, ok := lookup(event)
	if !ok {
		return fmt.Errorf("%w: unknown event %q", ErrInvalidTransition, event)
	}
	if !Permits(tr.party, actor.Role) {
		return fmt.Errorf("%w: role %q may not %s", ErrInvalidTransition, actor.Role, event)
	}
	if tr.party == PartyOwner && !t.timecard.IsOwnedBy(actor.ID) {
		return fmt.Errorf("%w: only the owner may %s this timecard", ErrInvalidTransition, event)
	}

	if err := t.fsm.Event(ctx, event); err != nil {
		var noTransition fsm.NoTransitionError
		if !errors.As(err, &noTransition) {
			return fmt.Errorf("%w: cannot %s from %s", ErrInvalidTransition, event, t.timecard.Status)
		}
	}

	t.timecard.Status = t.fsm.Current()
	return nil
}

// AvailableEvents lists the events the actor may fire from the current state
func (t *TimecardFSM) AvailableEvents(actor models.Actor) []string {
	var out []string
	for _, tr := range transitions {
		if !t.fsm.Can(tr.event) || !Permits(tr.party, actor.Role) {
			continue
		}
		if tr.party == PartyOwner && !t.timecard.IsOwnedBy(actor.ID) {
			continue
		}
		out = append(out, tr.event)
	}
	return out
}
