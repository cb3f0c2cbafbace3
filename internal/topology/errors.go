// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package topology

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyApplication is returned when an Application is built without boards.
	ErrEmptyApplication = errors.New("application requires at least one board")
	// ErrEmptyBoard is returned when a Board is built without processors.
	ErrEmptyBoard = errors.New("board requires at least one processor")
	// ErrEmptyProcessor is returned when threads are distributed onto a
	// Processor that has no cores.
	ErrEmptyProcessor = errors.New("processor has no cores")
)

// InvalidConfigError reports a configuration field of the wrong kind, either
// on a CompilerConfig or on a hardware family limit.
type InvalidConfigError struct {
	Field  string
	Reason string
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config field %q: %s", e.Field, e.Reason)
}

// IncompleteConfigError reports a field required to assemble arguments that
// was never set.
type IncompleteConfigError struct {
	Field string
}

func (e *IncompleteConfigError) Error() string {
	return fmt.Sprintf("incomplete compiler config: %q is not set", e.Field)
}

// InvalidPortError reports a Port with an empty name or non-positive capacity.
type InvalidPortError struct {
	Name     string
	Capacity int
	Reason   string
}

func (e *InvalidPortError) Error() string {
	return fmt.Sprintf("invalid port %q (capacity %d): %s", e.Name, e.Capacity, e.Reason)
}

// InvalidDriverError reports a Driver with a missing or out-of-range field.
type InvalidDriverError struct {
	Name   string
	Field  string
	Reason string
}

func (e *InvalidDriverError) Error() string {
	return fmt.Sprintf("invalid driver %q field %q: %s", e.Name, e.Field, e.Reason)
}

// InvalidProcessError reports a Process collection that failed validation.
type InvalidProcessError struct {
	Field  string
	Reason string
}

func (e *InvalidProcessError) Error() string {
	return fmt.Sprintf("invalid process field %q: %s", e.Field, e.Reason)
}

// DuplicateNameError reports two children of the same kind sharing a name
// within one owner.
type DuplicateNameError struct {
	Kind string
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("duplicate %s name %q", e.Kind, e.Name)
}

// AlreadyBoundError reports an attempt to give an exclusively owned entity a
// second owner.
type AlreadyBoundError struct {
	Kind string
	Name string
}

func (e *AlreadyBoundError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("%s is already bound to another owner", e.Kind)
	}
	return fmt.Sprintf("%s %q is already bound to another owner", e.Kind, e.Name)
}

// TypeMismatchError reports a child that is not a valid instance of the kind
// its owner expects.
type TypeMismatchError struct {
	Want string
	Got  string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch: want %s, got %s", e.Want, e.Got)
}

// CapacityExceededError reports more cores than a processor family supports.
type CapacityExceededError struct {
	Have  int
	Limit int
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("capacity exceeded: have %d cores, family limit is %d", e.Have, e.Limit)
}

// InvalidMemorySizeError reports a board memory size outside the allowed set.
type InvalidMemorySizeError struct {
	Value   int
	Allowed []int
}

func (e *InvalidMemorySizeError) Error() string {
	allowed := make([]string, len(e.Allowed))
	for i, v := range e.Allowed {
		allowed[i] = fmt.Sprint(v)
	}
	return fmt.Sprintf("invalid memory size %d: allowed values are {%s}", e.Value, strings.Join(allowed, ", "))
}

// ConfigOverrideWarning is the non-fatal diagnostic emitted when an override
// replaces a compiler field that was already set.
type ConfigOverrideWarning struct {
	// Process names the process whose config was overridden, when known.
	Process  string
	Field    string
	Previous string
	Current  string
}

func (w ConfigOverrideWarning) String() string {
	if w.Process != "" {
		return fmt.Sprintf("process %q: compiler field %q overridden: %s -> %s", w.Process, w.Field, w.Previous, w.Current)
	}
	return fmt.Sprintf("compiler field %q overridden: %s -> %s", w.Field, w.Previous, w.Current)
}
