package domain

import (
	"context"
	"fmt"
)

// SourceStatus describes whether a provider produced a usable value this run.
type SourceStatus int

const (
	// SourceOK means the value was fetched and normalized.
	SourceOK SourceStatus = iota
	// SourceAbsent means there was nothing to report: out of season, no
	// quotations stored, or the subscription did not ask for it.
	SourceAbsent
	// SourceUnavailable means the provider failed: network error, malformed
	// response, missing field or timeout.
	SourceUnavailable
)

func (s SourceStatus) String() string {
	switch s {
	case SourceOK:
		return "ok"
	case SourceAbsent:
		return "absent"
	case SourceUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Source carries a provider value together with its availability. A Source
// with a status other than SourceOK must not be rendered as real data.
type Source[T any] struct {
	Value  T
	Status SourceStatus
	Err    error
}

// OK reports whether the source produced a usable value.
func (s Source[T]) OK() bool { return s.Status == SourceOK }

// Present reports whether the source produced anything worth a message
// section, including an unavailable notice.
func (s Source[T]) Present() bool { return s.Status != SourceAbsent }

func available[T any](v T) Source[T] {
	return Source[T]{Value: v, Status: SourceOK}
}

func absent[T any]() Source[T] {
	return Source[T]{Status: SourceAbsent}
}

func unavailable[T any](err error) Source[T] {
	return Source[T]{Status: SourceUnavailable, Err: err}
}

// guard runs a provider call in its own goroutine so that a panic or a call
// that ignores its context cannot escape the source boundary. The call is
// abandoned once ctx is done.
func guard[T any](ctx context.Context, call func(context.Context) (T, error)) (T, error) {
	type outcome struct {
		value T
		err   error
	}
	ch := make(chan outcome, 1)

	go func() {
		defer func() {
			if p := recover(); p != nil {
				ch <- outcome{err: fmt.Errorf("provider panic: %v", p)}
			}
		}()
		v, err := call(ctx)
		ch <- outcome{value: v, err: err}
	}()

	select {
	case o := <-ch:
		return o.value, o.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
