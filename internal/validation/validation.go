package validation

import (
	"errors"
	"strconv"
	"strings"
)

// ErrSolEmpty is returned when the sol path segment is empty after trim.
var ErrSolEmpty = errors.New("sol is required")

// ErrSolNotInteger is returned when the sol does not parse as a base-10 integer.
var ErrSolNotInteger = errors.New("sol must be an integer")

// ErrSolNegative is returned when the sol is below zero.
var ErrSolNegative = errors.New("sol must not be negative")

// ErrSolTooLarge is returned when the sol exceeds the configured maximum.
var ErrSolTooLarge = errors.New("sol exceeds maximum")

// ParseSol parses and validates a sol path segment. maxSol bounds the
// accepted range (<= 0 disables the upper bound). Returns an error suitable
// for 400 INVALID_SOL responses; the route length is linear in sol, so the
// upper bound doubles as a response-size guard.
func ParseSol(input string, maxSol int) (int, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return 0, ErrSolEmpty
	}
	sol, err := strconv.Atoi(s)
	if err != nil {
		return 0, ErrSolNotInteger
	}
	if sol < 0 {
		return 0, ErrSolNegative
	}
	if maxSol > 0 && sol > maxSol {
		return 0, ErrSolTooLarge
	}
	return sol, nil
}
