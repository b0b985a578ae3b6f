package domain

import "errors"

var (
	ErrNotFound         = errors.New("session not found")
	ErrAlreadyExists    = errors.New("session already exists")
	ErrUnauthorized     = errors.New("only the host can do that")
	ErrInvalidAction    = errors.New("invalid playback action")
	ErrInvalidTime      = errors.New("invalid playback time")
	ErrEmptyMessage     = errors.New("empty chat message")
	ErrSubtitleTooLarge = errors.New("subtitle too large")
	ErrNameEmpty        = errors.New("name empty")
	ErrNameTooLong      = errors.New("name too long")
	ErrInvalidVideoURL  = errors.New("video url required")
	ErrAudioRefTooLong  = errors.New("audio reference too long")
)
