// Package errors provides custom error types for product catalog operations.
package errors

import "errors"

var (
	// ErrProductNotFound is returned when no product exists with the given, well-formed ID.
	ErrProductNotFound = errors.New("product not found")

	// ErrInvalidProductID is returned when an ID is not in the backing store's
	// native identifier format. It is detected before any store round-trip.
	ErrInvalidProductID = errors.New("invalid product id")

	// ErrEmptyUpdate is returned when an update request carries no fields.
	ErrEmptyUpdate = errors.New("no fields to update")

	// ErrInvalidImageFormat is returned when an image value is neither a
	// data:image base64 payload nor (for updates) an http(s) URL.
	ErrInvalidImageFormat = errors.New("invalid image format")

	// ErrImageTooLarge is returned when a base64 image exceeds the 5MB decoded limit.
	ErrImageTooLarge = errors.New("image too large")
)
