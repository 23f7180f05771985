package domain

import "errors"

var (
	// ErrInsufficientTokens is raised locally, before any network call,
	// when a gated action is attempted with a zero balance.
	ErrInsufficientTokens = errors.New("no chat tokens available")

	// ErrSpendRejected means the token-spend collaborator refused the
	// spend; the gated action must not proceed.
	ErrSpendRejected = errors.New("token spend rejected")

	// ErrChatDispatch wraps a failed chat collaborator call. The user
	// message stays in the transcript; retry is manual.
	ErrChatDispatch = errors.New("chat dispatch failed")

	// ErrSessionEnd wraps a failed session finalization. The transcript
	// is discarded anyway so the user is never stuck in Ending.
	ErrSessionEnd = errors.New("session finalization failed")

	ErrSessionNotFound = errors.New("session not found")

	// ErrWrongPhase means the requested operation is not legal in the
	// session's current phase.
	ErrWrongPhase = errors.New("operation not valid in current phase")
)
