package repository

import "errors"

// Errores centinela del storage; los handlers los mapean a códigos HTTP
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidID         = errors.New("invalid ID")
	ErrEmailTaken        = errors.New("email already registered")
	ErrInsufficientStock = errors.New("insufficient stock")
)
