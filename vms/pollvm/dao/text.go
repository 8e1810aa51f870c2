// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package dao

import "bytes"

// PackQuestion copies [question] left aligned into a zero padded buffer.
func PackQuestion(question string) ([MaxQuestionLen]byte, error) {
	var buf [MaxQuestionLen]byte
	if len(question) > MaxQuestionLen {
		return buf, ErrInvalidQuestionLen
	}
	copy(buf[:], question)
	return buf, nil
}

// PackOption copies [option] left aligned into a zero padded buffer.
func PackOption(option string) ([MaxOptionLen]byte, error) {
	var buf [MaxOptionLen]byte
	if len(option) > MaxOptionLen {
		return buf, ErrInvalidOptionLen
	}
	copy(buf[:], option)
	return buf, nil
}

// UnpackText drops the zero padding of a packed buffer. Text that really
// ended in zero bytes loses them, the length is not stored anywhere.
func UnpackText(buf []byte) string {
	return string(bytes.TrimRight(buf, "\x00"))
}
