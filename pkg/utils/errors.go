// Package utils provides the error types shared by the simulation packages
package utils

import (
	"errors"
	"fmt"
)

// ErrorCode represents specific error conditions in the simulation
type ErrorCode int

const (
	// No error occurred
	ErrCodeNone ErrorCode = iota
	// Phase value is outside the four-phase cycle
	ErrCodeInvalidPhase
	// Phase change skips the cycle order
	ErrCodeTransitionNotAllowed
	// Configuration is invalid
	ErrCodeInvalidConfiguration
	// Run already finished
	ErrCodeRunFinished
)

// ConfigurationError represents rejected construction parameters
type ConfigurationError struct {
	Component string
	Issue     string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Issue)
}

// NewConfigurationError creates a new configuration error
func NewConfigurationError(component, issue string) *ConfigurationError {
	return &ConfigurationError{
		Component: component,
		Issue:     issue,
	}
}

// PhaseError represents an unknown phase value
type PhaseError struct {
	Code    ErrorCode
	Phase   string
	Message string
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("phase error [%s]: %s", e.Phase, e.Message)
}

// NewInvalidPhaseError creates a new invalid phase error
func NewInvalidPhaseError(phase string) *PhaseError {
	return &PhaseError{
		Code:    ErrCodeInvalidPhase,
		Phase:   phase,
		Message: fmt.Sprintf("phase '%s' is not part of the signal cycle", phase),
	}
}

// TransitionError represents a phase change that breaks the cycle order
type TransitionError struct {
	Code   ErrorCode
	From   string
	To     string
	Reason string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("transition error [%s->%s]: %s", e.From, e.To, e.Reason)
}

// NewTransitionNotAllowedError creates a new transition not allowed error
func NewTransitionNotAllowedError(from, to string) *TransitionError {
	return &TransitionError{
		Code:   ErrCodeTransitionNotAllowed,
		From:   from,
		To:     to,
		Reason: "transition not allowed",
	}
}

// RunError represents misuse of a simulation run's lifecycle
type RunError struct {
	Code      ErrorCode
	Operation string
	Message   string
}

func (e *RunError) Error() string {
	return fmt.Sprintf("run error during %s: %s", e.Operation, e.Message)
}

// NewRunFinishedError creates a new run finished error
func NewRunFinishedError(operation string) *RunError {
	return &RunError{
		Code:      ErrCodeRunFinished,
		Operation: operation,
		Message:   "simulation run already finished",
	}
}

// IsConfigurationError checks if an error is, or wraps, a ConfigurationError
func IsConfigurationError(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

// IsPhaseError checks if an error is, or wraps, a PhaseError
func IsPhaseError(err error) bool {
	var target *PhaseError
	return errors.As(err, &target)
}

// IsTransitionError checks if an error is, or wraps, a TransitionError
func IsTransitionError(err error) bool {
	var target *TransitionError
	return errors.As(err, &target)
}

// IsRunError checks if an error is, or wraps, a RunError
func IsRunError(err error) bool {
	var target *RunError
	return errors.As(err, &target)
}

// GetErrorCode returns the error code of the first known error in err's chain
func GetErrorCode(err error) ErrorCode {
	var (
		phaseErr      *PhaseError
		transitionErr *TransitionError
		runErr        *RunError
		configErr     *ConfigurationError
	)
	switch {
	case errors.As(err, &phaseErr):
		return phaseErr.Code
	case errors.As(err, &transitionErr):
		return transitionErr.Code
	case errors.As(err, &runErr):
		return runErr.Code
	case errors.As(err, &configErr):
		return ErrCodeInvalidConfiguration
	default:
		return ErrCodeNone
	}
}
