package market

import (
	"errors"
	"fmt"
)

// ErrEmptySnapshot is matched by every EmptySnapshotError.
var ErrEmptySnapshot = errors.New("empty snapshot")

// FetchError reports a transport or data-source failure.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// EmptySnapshotError reports a statistic that is undefined on an empty snapshot.
type EmptySnapshotError struct {
	Stat string
}

func (e *EmptySnapshotError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stat, ErrEmptySnapshot)
}

func (e *EmptySnapshotError) Is(target error) bool { return target == ErrEmptySnapshot }

// PublishError reports a sink write failure.
type PublishError struct {
	Sink string
	Err  error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish %s: %v", e.Sink, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }
