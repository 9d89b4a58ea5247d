package service

import (
	"errors"

	"github.com/preschool-cms-api/internal/store"
	"github.com/preschool-cms-api/internal/validation"
)

// ResultKind classifies the outcome of a command
type ResultKind string

const (
	KindOK           ResultKind = "ok"
	KindValidation   ResultKind = "validation"
	KindRemote       ResultKind = "remote"
	KindNotFound     ResultKind = "not_found"
	KindNotConfirmed ResultKind = "not_confirmed"
)

// Result is the outcome of a command. Record is set only for KindOK, Errors
// only for KindValidation and Err for KindRemote and KindNotFound.
type Result[T any] struct {
	Kind   ResultKind
	Record T
	Errors []validation.ValidationError
	Err    error
}

// OK reports whether the command succeeded
func (r Result[T]) OK() bool {
	return r.Kind == KindOK
}

func ok[T any](rec T) Result[T] {
	return Result[T]{Kind: KindOK, Record: rec}
}

func invalid[T any](errs ...validation.ValidationError) Result[T] {
	return Result[T]{Kind: KindValidation, Errors: errs}
}

func notConfirmed[T any]() Result[T] {
	return Result[T]{Kind: KindNotConfirmed}
}

// fromStoreErr maps a failed store call onto a result kind
func fromStoreErr[T any](err error) Result[T] {
	if errors.Is(err, store.ErrNotFound) {
		return Result[T]{Kind: KindNotFound, Err: err}
	}
	return Result[T]{Kind: KindRemote, Err: err}
}
