// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package dao

import "errors"

var (
	// Input shape violations, detected before anything is written.
	ErrNotEnoughOptions   = errors.New("poll must have at least 2 options")
	ErrTooManyOptions     = errors.New("too many options")
	ErrInvalidTimeRange   = errors.New("poll start/end slots are invalid")
	ErrInvalidQuestionLen = errors.New("question is too long")
	ErrInvalidOptionLen   = errors.New("option text is too long")
	ErrInvalidText        = errors.New("text is not valid UTF-8")

	// State violations, detected after the poll was read.
	ErrPollNotActive = errors.New("poll is not active")
	ErrInvalidChoice = errors.New("choice index is invalid")
	ErrPollNotFound  = errors.New("poll not found")

	ErrInvalidRecordSize = errors.New("invalid record size")
)
