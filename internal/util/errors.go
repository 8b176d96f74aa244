package util

import "errors"

var (
	ErrInvalidUserID            = errors.New("invalid user id")
	ErrInvalidID                = errors.New("invalid id")
	ErrAttemptNotFound          = errors.New("attempt not found")
	ErrAlreadySubmitted         = errors.New("attempt already submitted")
	ErrStartConflict            = errors.New("another attempt was created concurrently, fetch the existing attempt")
	ErrQuestionGenerationFailed = errors.New("question generation failed")
	ErrInvalidAnswer            = errors.New("invalid answer payload")
	ErrNoQuestions              = errors.New("attempt has no questions")
)
