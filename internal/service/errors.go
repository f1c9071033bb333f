package service

import "errors"

// Validation errors. All of these are checked and returned before any
// write is issued, so a rejected operation leaves stock and balances
// untouched.
var (
	// ErrInsufficientStock rejects a sale whose quantity exceeds the
	// product's current stock.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrInvalidQuantity rejects a sale quantity of zero or less.
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")

	// ErrInvalidPartialAmount rejects a partial payment that is not
	// strictly between zero and the sale total.
	ErrInvalidPartialAmount = errors.New("partial payment must be greater than zero and less than total")

	// ErrOverpayment rejects a payment of zero or less, or one that
	// exceeds the sale's current amount due.
	ErrOverpayment = errors.New("payment exceeds amount due")

	// ErrDeletePending rejects a second delete on a record whose undo
	// window is still open.
	ErrDeletePending = errors.New("delete already pending for this record")

	// ErrUndoExpired rejects an undo after the window has elapsed or
	// for a record that was never staged.
	ErrUndoExpired = errors.New("undo window expired")

	// ErrInvalidBackup rejects a restore payload that fails shape
	// validation.
	ErrInvalidBackup = errors.New("invalid backup file")
)
