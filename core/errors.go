package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidListing indicates a Listing failed validation.
	ErrInvalidListing = errors.New("invalid listing")

	// ErrInvalidAnalysis indicates a QueryAnalysis failed validation.
	ErrInvalidAnalysis = errors.New("invalid query analysis")

	// ErrEmptyID indicates the listing ID is empty.
	ErrEmptyID = errors.New("listing id cannot be empty")

	// ErrEmptyName indicates the listing name is empty.
	ErrEmptyName = errors.New("listing name cannot be empty")

	// ErrUnknownRetailer indicates the retailer is not one of the supported identifiers.
	ErrUnknownRetailer = errors.New("unknown retailer")

	// ErrInvalidShippingClass indicates the shipping class is neither domestic nor international.
	ErrInvalidShippingClass = errors.New("invalid shipping class")

	// ErrInvalidIntent indicates an intent value outside product/question.
	ErrInvalidIntent = errors.New("invalid intent")

	// ErrInvalidConfidence indicates a confidence outside [0,1].
	ErrInvalidConfidence = errors.New("confidence must be between 0 and 1")
)
