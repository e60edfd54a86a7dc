package domain

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for conditions shared across components. Grounded on the
// teacher's internal/types/errors.go sentinel-and-wrapped-error pattern.
var (
	ErrNoMatch          = errors.New("resolver: no matching event")
	ErrProxyExhausted   = errors.New("proxy rotator: all providers quarantined")
	ErrSourceCooldown   = errors.New("source registry: source is cooling down")
	ErrJobAlreadyRunning = errors.New("scheduler: job is already running")
	ErrUnknownJob       = errors.New("scheduler: unknown job type")
	ErrNoPersistence    = errors.New("config: no persistence target configured")
)

// FetchError wraps a navigation/request failure. Retryable marks whether
// the job framework's transient-network retry budget (spec §7.1) applies.
type FetchError struct {
	URL        string
	Err        error
	Retryable  bool
	RetryAfter time.Duration
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error    { return e.Err }
func (e *FetchError) IsRetryable() bool { return e.Retryable }

// ParseError wraps a DOM/JSON extraction failure for a single source.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string { return fmt.Sprintf("parse %s: %v", e.Source, e.Err) }
func (e *ParseError) Unwrap() error  { return e.Err }

// PersistenceError wraps a store-layer failure. Fatal distinguishes the
// "connectivity loss aborts the job" case (spec §7.5) from a per-row
// constraint violation, which callers log and skip.
type PersistenceError struct {
	Op    string
	Err   error
	Fatal bool
}

func (e *PersistenceError) Error() string { return fmt.Sprintf("persistence %s: %v", e.Op, e.Err) }
func (e *PersistenceError) Unwrap() error  { return e.Err }

// ResolverMissError is logged structurally (spec §7.4) with both the raw
// and normalized names so it can feed a manual-mapping workflow later.
type ResolverMissError struct {
	RawHome, RawAway   string
	NormHome, NormAway string
}

func (e *ResolverMissError) Error() string {
	return fmt.Sprintf("resolver miss: %q/%q (normalized %q/%q)", e.RawHome, e.RawAway, e.NormHome, e.NormAway)
}

// FatalError marks a condition that must exit the process (spec §7.6):
// browser launch failure after the retry budget, or invalid configuration.
type FatalError struct {
	Reason string
	Err    error
}

func (e *FatalError) Error() string { return fmt.Sprintf("fatal: %s: %v", e.Reason, e.Err) }
func (e *FatalError) Unwrap() error  { return e.Err }
