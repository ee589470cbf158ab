// Package model defines the core data types shared by the ingestion and backlog processing pipeline.
package model

import (
	"errors"
	"fmt"
	"strings"
)

// Status is the lifecycle state shared by source files and raw records.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type Status string

const (
	// StatusNew marks a file or record that has not been picked up yet.
	StatusNew Status = "new"
	// StatusProcessing marks a file being paged or a record claimed by the processor.
	StatusProcessing Status = "processing"
	// StatusSuccess is terminal; a successful file is never ingested again unless forced.
	StatusSuccess Status = "success"
	// StatusFailed is terminal for a pass but may be re-driven.
	StatusFailed Status = "failed"
)

// ErrInvalidTransition is returned when a status change is not allowed by the lifecycle.
var ErrInvalidTransition = errors.New("invalid status transition")

// Valid returns true if the Status is one of the known lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusProcessing, StatusSuccess, StatusFailed:
		return true
	default:
		return false
	}
}

// Terminal reports whether the status ends a processing pass.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// UnmarshalText implements encoding.TextUnmarshaler so statuses can be parsed from flags and env.
func (s *Status) UnmarshalText(text []byte) error {
	v := Status(strings.ToLower(strings.TrimSpace(string(text))))
	if !v.Valid() {
		return fmt.Errorf("invalid status: %q", string(text))
	}
	*s = v
	return nil
}

// transitions lists the allowed edges of the lifecycle graph.
//
//	new -> processing -> success | failed
//	processing -> new      (stale claim re-queued)
//	failed -> processing   (file picked up again by a later run)
//	failed -> new          (record re-driven)
var transitions = map[Status][]Status{
	StatusNew:        {StatusProcessing},
	StatusProcessing: {StatusSuccess, StatusFailed, StatusNew},
	StatusFailed:     {StatusProcessing, StatusNew},
	StatusSuccess:    nil,
}

// TransitionOption adjusts how Transition validates an edge.
type TransitionOption func(*transitionOptions)

type transitionOptions struct {
	reopen bool
}

// AllowReopen permits success -> processing, used when a file is explicitly forced.
func AllowReopen() TransitionOption {
	return func(o *transitionOptions) { o.reopen = true }
}

// Transition validates moving from one status to another and returns the target status.
// It is the single authority over the file and record lifecycle.
func Transition(from, to Status, opts ...TransitionOption) (Status, error) {
	var o transitionOptions
	for _, opt := range opts {
		opt(&o)
	}

	if !from.Valid() || !to.Valid() {
		return from, fmt.Errorf("%w: %q -> %q", ErrInvalidTransition, from, to)
	}

	if from == StatusSuccess && to == StatusProcessing && o.reopen {
		return to, nil
	}

	for _, allowed := range transitions[from] {
		if allowed == to {
			return to, nil
		}
	}
	return from, fmt.Errorf("%w: %q -> %q", ErrInvalidTransition, from, to)
}

// CanTransition is a boolean form of Transition.
func CanTransition(from, to Status, opts ...TransitionOption) bool {
	_, err := Transition(from, to, opts...)
	return err == nil
}
