package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Kind groups domain errors by how a caller should react.
type Kind int

const (
	// KindValidation: malformed input, never partially applied.
	KindValidation Kind = iota + 1
	// KindNotFound: the referenced row does not exist.
	KindNotFound
	// KindConflict: state moved underneath the caller; re-read and decide.
	KindConflict
	// KindResource: user-correctable (balance, KYC).
	KindResource
	// KindForbidden: caller may not act on this row.
	KindForbidden
)

// Error is a domain error with a stable machine-readable code.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

var (
	ErrSlotsFull                  = &Error{KindConflict, "SLOTS_FULL", "tournament is full"}
	ErrAlreadyJoined              = &Error{KindConflict, "ALREADY_JOINED", "user already joined this tournament"}
	ErrNotUpcoming                = &Error{KindConflict, "NOT_UPCOMING", "tournament is not open for registration"}
	ErrTeamRequired               = &Error{KindValidation, "TEAM_REQUIRED", "squad tournaments require a team"}
	ErrNotTeamMember              = &Error{KindForbidden, "NOT_TEAM_MEMBER", "user is not on this team's roster"}
	ErrInvalidTransition          = &Error{KindConflict, "INVALID_TRANSITION", "illegal tournament status transition"}
	ErrNotLive                    = &Error{KindConflict, "NOT_LIVE", "tournament is not live"}
	ErrAlreadyVerified            = &Error{KindConflict, "ALREADY_VERIFIED", "result already verified"}
	ErrNoSubmission               = &Error{KindConflict, "NO_SUBMISSION", "no pending result submission"}
	ErrRankTaken                  = &Error{KindConflict, "RANK_TAKEN", "rank already awarded to another participant"}
	ErrInsufficientBalance        = &Error{KindResource, "INSUFFICIENT_BALANCE", "insufficient wallet balance"}
	ErrKycNotApproved             = &Error{KindResource, "KYC_NOT_APPROVED", "KYC verification is not approved"}
	ErrBelowMinimum               = &Error{KindValidation, "BELOW_MINIMUM", "amount is below the minimum withdrawal"}
	ErrDuplicatePendingSubmission = &Error{KindConflict, "DUPLICATE_PENDING_SUBMISSION", "a document of this type is already pending review"}
	ErrAlreadyReviewed            = &Error{KindConflict, "ALREADY_REVIEWED", "document already reviewed"}
	ErrAlreadyProcessed           = &Error{KindConflict, "ALREADY_PROCESSED", "transaction is not pending"}
	ErrReasonRequired             = &Error{KindValidation, "REASON_REQUIRED", "a reason is required to reject"}
	ErrNotOwner                   = &Error{KindForbidden, "NOT_OWNER", "not allowed to act on this resource"}
	ErrRosterFull                 = &Error{KindConflict, "ROSTER_FULL", "team roster is full"}
	ErrRosterTooSmall             = &Error{KindConflict, "ROSTER_TOO_SMALL", "team roster is too small for squad play"}
	ErrAlreadyOnTeam              = &Error{KindConflict, "ALREADY_ON_TEAM", "user is already on this team"}
	ErrCaptainRemoval             = &Error{KindConflict, "CAPTAIN_REMOVAL", "the captain cannot be removed"}
	ErrTicketClosed               = &Error{KindConflict, "TICKET_CLOSED", "ticket is not open"}
	ErrUserBanned                 = &Error{KindForbidden, "USER_BANNED", "user is banned"}
)

// ValidationError reports a bad field value.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// NotFoundError names the missing entity.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// notFound maps gorm.ErrRecordNotFound to a NotFoundError and wraps the rest.
func notFound(err error, entity, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &NotFoundError{Entity: entity, ID: id}
	}
	return fmt.Errorf("load %s %s: %w", entity, id, err)
}
