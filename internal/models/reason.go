package models

import (
	"errors"
	"fmt"
)

// Reason is a stable failure code rendered by clients.
type Reason string

const (
	ReasonInvalidURL            Reason = "invalid-url"
	ReasonInvalidFile           Reason = "invalid-file"
	ReasonFileTypeUnsupported   Reason = "file-type-unsupported"
	ReasonFileSizeTooBig        Reason = "file-size-too-big"
	ReasonFileHashFail          Reason = "file-hash-fail"
	ReasonRateLimit             Reason = "rate-limit"
	ReasonDBInsertFail          Reason = "db-insert-fail"
	ReasonTranscribeKickoffFail Reason = "transcribe-kickoff-fail"
	ReasonUnknown               Reason = "unknown"

	ReasonNoID         Reason = "no-id"
	ReasonNoEntry      Reason = "no-entry"
	ReasonNoTranscript Reason = "no-transcript"
)

// Failure attaches a Reason to an underlying error.
type Failure struct {
	Reason Reason
	Err    error
}

func Fail(reason Reason, err error) *Failure {
	return &Failure{Reason: reason, Err: err}
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return string(f.Reason)
	}
	return fmt.Sprintf("%s: %v", f.Reason, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// ReasonOf extracts the Reason carried by err, or ReasonUnknown.
func ReasonOf(err error) Reason {
	var f *Failure
	if errors.As(err, &f) {
		return f.Reason
	}
	return ReasonUnknown
}
