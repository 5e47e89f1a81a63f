package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgInvalidText         = "22P02"
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
)

var (
	// ErrNotFound is returned when the referenced row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrInvalidState is returned when a conditional update finds the row in a state
	// that forbids the transition.
	ErrInvalidState = errors.New("record in invalid state")
)

// mapNoRows treats a missing row and a malformed uuid, which postgres rejects
// before reading, as the same ErrNotFound.
func mapNoRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgInvalidText {
		return ErrNotFound
	}
	return err
}

// mapConstraint turns a missing parent row into ErrNotFound and a duplicate into
// ErrInvalidState.
func mapConstraint(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgForeignKeyViolation, pgInvalidText:
			return ErrNotFound
		case pgUniqueViolation:
			return ErrInvalidState
		}
	}
	return err
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
