package service

import "errors"

var (
	ErrValidation         = errors.New("invalid input")
	ErrQuantityOutOfRange = errors.New("quantity out of range")
	ErrNoRecentSale       = errors.New("no sale completed in this session")
	ErrReceipt            = errors.New("receipt could not be written")
	ErrExport             = errors.New("inventory export failed")
)
