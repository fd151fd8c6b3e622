package model

import "errors"

// Common errors used across the application
var (
	// User errors
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists for provider id")

	// Session errors
	ErrSessionNotFound    = errors.New("session not found")
	ErrLoginStateNotFound = errors.New("login state not found")

	// Game errors
	ErrGameNotFound      = errors.New("game not found")
	ErrNotHost           = errors.New("user is not the host")
	ErrInvalidRounds     = errors.New("invalid rounds")
	ErrRoomCodeTaken     = errors.New("room code already in use")
	ErrRoomCodeExhausted = errors.New("could not generate a unique room code")
)
