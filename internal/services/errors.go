package services

import (
	"errors"
	"fmt"
)

// Kind classifies why an upload operation failed.
type Kind string

const (
	KindIngestion         Kind = "ingestion_failure"
	KindInvalidSize       Kind = "invalid_size"
	KindSourceMissing     Kind = "source_missing"
	KindDerivativeMissing Kind = "derivative_missing"
	KindOwnershipMismatch Kind = "ownership_mismatch"
	KindCodec             Kind = "codec_failure"
	KindStorage           Kind = "storage_failure"
)

// Sentinels matched by errors.Is against any *Failure of the same kind.
var (
	ErrIngestion         = errors.New("file upload failed")
	ErrInvalidSize       = errors.New("invalid image size")
	ErrSourceMissing     = errors.New("source image not found")
	ErrDerivativeMissing = errors.New("derivative not found")
	ErrOwnershipMismatch = errors.New("upload does not belong to owner")
	ErrCodec             = errors.New("image resize failed")
	ErrStorage           = errors.New("storage operation failed")

	// ErrNotImage is the cause when a derivative is requested for non-image content.
	ErrNotImage = errors.New("upload is not an image")
)

var sentinels = map[Kind]error{
	KindIngestion:         ErrIngestion,
	KindInvalidSize:       ErrInvalidSize,
	KindSourceMissing:     ErrSourceMissing,
	KindDerivativeMissing: ErrDerivativeMissing,
	KindOwnershipMismatch: ErrOwnershipMismatch,
	KindCodec:             ErrCodec,
	KindStorage:           ErrStorage,
}

// Failure is the typed error returned by every public service operation.
type Failure struct {
	Kind Kind
	Op   string
	Err  error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("%s: %v", f.Op, sentinels[f.Kind])
	}
	return fmt.Sprintf("%s: %v: %v", f.Op, sentinels[f.Kind], f.Err)
}

func (f *Failure) Unwrap() []error {
	if f.Err == nil {
		return []error{sentinels[f.Kind]}
	}
	return []error{sentinels[f.Kind], f.Err}
}

func fail(kind Kind, op string, err error) *Failure {
	return &Failure{Kind: kind, Op: op, Err: err}
}

// KindOf returns the failure kind carried by err, or "" if err is not a *Failure.
func KindOf(err error) Kind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return ""
}
