package services

import "errors"

// Validation errors: reported synchronously to the caller, no state change.
var (
	ErrPoolInactive   = errors.New("pool is not accepting entries")
	ErrWrongFee       = errors.New("paid amount does not match the tier entry fee")
	ErrPoolFull       = errors.New("pool is at capacity")
	ErrAlreadyEntered = errors.New("entrant already joined this round")
	ErrBelowQuorum    = errors.New("participant count is below the manual-trigger quorum")
	ErrDrawInProgress = errors.New("a draw is already in progress for this tier")
)

// Authorization and consistency errors.
var (
	ErrUnauthorizedCaller = errors.New("caller is not the registered oracle")
	ErrUnknownRequest     = errors.New("request id does not match any pending draw")
	ErrNoRewards          = errors.New("no referral rewards to claim")
)
