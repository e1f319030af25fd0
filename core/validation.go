package core

import (
	"fmt"
	"math"
)

// ValidateListing validates the minimum a provider gateway must populate.
//
// Validation rules:
//   - ID and Name must not be empty
//   - Retailer must be a supported identifier
//   - ShippingClass must be domestic or international
//
// NOT validated (handled by the fraud filter):
//   - ParsedPrice (zero or negative prices are removed there, with a rule count)
//   - Image, Delivery
func ValidateListing(l *Listing) error {
	if l == nil {
		return fmt.Errorf("%w: listing is nil", ErrInvalidListing)
	}
	if l.ID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidListing, ErrEmptyID)
	}
	if l.Name == "" {
		return fmt.Errorf("%w: %w", ErrInvalidListing, ErrEmptyName)
	}
	if !l.Retailer.Valid() {
		return fmt.Errorf("%w: %w: %q", ErrInvalidListing, ErrUnknownRetailer, l.Retailer)
	}
	if l.ShippingClass != ShippingDomestic && l.ShippingClass != ShippingInternational {
		return fmt.Errorf("%w: %w: %q", ErrInvalidListing, ErrInvalidShippingClass, l.ShippingClass)
	}
	return nil
}

// ValidateAnalysis checks that a classifier response is usable.
// A malformed analysis is treated like a failed call and replaced by the fallback.
func ValidateAnalysis(a *QueryAnalysis) error {
	if a == nil {
		return fmt.Errorf("%w: analysis is nil", ErrInvalidAnalysis)
	}
	if a.Intent != IntentProduct && a.Intent != IntentQuestion {
		return fmt.Errorf("%w: %w: %q", ErrInvalidAnalysis, ErrInvalidIntent, a.Intent)
	}
	if math.IsNaN(a.Confidence) || a.Confidence < 0 || a.Confidence > 1 {
		return fmt.Errorf("%w: %w", ErrInvalidAnalysis, ErrInvalidConfidence)
	}
	for r := range a.RetailerQueries {
		if !r.Valid() {
			return fmt.Errorf("%w: %w: %q", ErrInvalidAnalysis, ErrUnknownRetailer, r)
		}
	}
	return nil
}
