package service

import "errors"

var (
	ErrEmptyOrder           = errors.New("order has no products")
	ErrInvalidPaymentStatus = errors.New("status is not a payment outcome")
)
