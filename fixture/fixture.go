package fixture

import (
	"errors"
	"fmt"
	"sync"
	"testing"
)

// errPanicked is recorded when a slot's initializer panics. The panic
// itself propagates to whichever caller ran the initializer; this error
// is what every later caller observes.
var errPanicked = errors.New("initializer panicked")

// Slot is a process-wide, lazily-initialized fixture cell. The zero value
// is not usable; slots are created by the New*, and Setup* constructors,
// normally from generated code.
//
// A slot's initializer runs at most once per process, no matter how many
// call sites or goroutines request the value concurrently. There is no way
// to reset or re-run a slot.
type Slot[T any] struct {
	once sync.Once
	init func() (T, error)
	val  T
	err  error
}

// New declares a slot for a function returning a bare value.
func New[T any](fn func() T) *Slot[T] {
	return &Slot[T]{init: func() (T, error) { return fn(), nil }}
}

// NewE declares a slot for a function returning a value and an error.
func NewE[T any](fn func() (T, error)) *Slot[T] {
	return &Slot[T]{init: fn}
}

// NewE2 declares a slot for a function with two trailing error results.
// The first non-nil error, left to right, is the recorded failure.
func NewE2[T any](fn func() (T, error, error)) *Slot[T] {
	return &Slot[T]{init: func() (T, error) {
		v, err1, err2 := fn()
		return v, firstError(err1, err2)
	}}
}

// NewE3 declares a slot for a function with three trailing error results.
func NewE3[T any](fn func() (T, error, error, error)) *Slot[T] {
	return &Slot[T]{init: func() (T, error) {
		v, err1, err2, err3 := fn()
		return v, firstError(err1, err2, err3)
	}}
}

// Setup declares a slot for a function returning nothing. The cached value
// is the fact that the function ran.
func Setup(fn func()) *Slot[struct{}] {
	return &Slot[struct{}]{init: func() (struct{}, error) {
		fn()
		return struct{}{}, nil
	}}
}

// SetupE declares a setup slot for a function returning only an error.
func SetupE(fn func() error) *Slot[struct{}] {
	return &Slot[struct{}]{init: func() (struct{}, error) {
		return struct{}{}, fn()
	}}
}

// SetupE2 declares a setup slot for a function returning two errors.
func SetupE2(fn func() (error, error)) *Slot[struct{}] {
	return &Slot[struct{}]{init: func() (struct{}, error) {
		err1, err2 := fn()
		return struct{}{}, firstError(err1, err2)
	}}
}

// SetupE3 declares a setup slot for a function returning three errors.
func SetupE3(fn func() (error, error, error)) *Slot[struct{}] {
	return &Slot[struct{}]{init: func() (struct{}, error) {
		err1, err2, err3 := fn()
		return struct{}{}, firstError(err1, err2, err3)
	}}
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// force runs the initializer if nobody has yet. Concurrent callers block
// on the once until the outcome is recorded.
func (s *Slot[T]) force() {
	s.once.Do(func() {
		// The once is spent even if init panics below, so record the
		// failure up front and overwrite it with the real outcome.
		s.err = errPanicked
		s.val, s.err = s.init()
	})
}

// Get returns the cached value, running the initializer on first access
// from any caller. If the one permitted run failed or panicked, Get panics;
// it never substitutes a zero value for a fixture that was not built.
func (s *Slot[T]) Get() T {
	s.force()
	if s.err != nil {
		panic(fmt.Sprintf("fixture: %v", s.err))
	}
	return s.val
}

// Run forces initialization and reports a failed initializer through t.
// Generated test entry points call Run so that a broken fixture surfaces
// as an ordinary test failure no matter which test triggered the build.
func (s *Slot[T]) Run(t testing.TB) T {
	t.Helper()
	s.force()
	if s.err != nil {
		t.Fatalf("fixture: %v", s.err)
	}
	return s.val
}
