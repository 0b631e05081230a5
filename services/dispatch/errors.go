package dispatch

import "errors"

// Domain errors surfaced by the dispatch use cases. Callers match them with
// errors.Is; wrapped variants carry the operational cause.
var (
	ErrNoCandidates         = errors.New("no drivers available near pickup")
	ErrDispatchExhausted    = errors.New("every candidate declined or timed out")
	ErrIllegalTransition    = errors.New("illegal trip status transition")
	ErrTransitionContention = errors.New("trip kept changing under concurrent updates")
	ErrNotAuthorized        = errors.New("actor is not authorized for this trip")
	ErrTripNotActive        = errors.New("trip is not active")
	ErrBindRaceLost         = errors.New("driver binding lost to a concurrent update")
	ErrDeliveryFailed       = errors.New("message delivery failed")
	ErrRetryCeilingExceeded = errors.New("position retry ceiling exceeded")

	ErrTripNotFound    = errors.New("trip not found")
	ErrDriverNotFound  = errors.New("driver not found")
	ErrOfferNotFound   = errors.New("no open offer for this driver and trip")
	ErrInvalidLocation = errors.New("invalid coordinates")
	ErrRateLimited     = errors.New("rate limit exceeded")
)
