package domain

import "context"

// Address is the part of a FormRecord resolved from a postal code.
type Address struct {
	Street   string
	District string
	City     string
	Region   string
}

// LookupStatus discriminates a LookupResult.
type LookupStatus int

const (
	LookupFound LookupStatus = iota
	LookupNotFound
	LookupTransportError
)

func (s LookupStatus) String() string {
	switch s {
	case LookupFound:
		return "found"
	case LookupNotFound:
		return "not_found"
	case LookupTransportError:
		return "error"
	}
	return "unknown"
}

// LookupResult is the outcome of resolving one postal code. Address is only
// meaningful when Status is LookupFound; Err only when it is
// LookupTransportError.
type LookupResult struct {
	Status  LookupStatus
	Address Address
	Err     error
}

// Found builds a successful LookupResult.
func Found(a Address) LookupResult {
	return LookupResult{Status: LookupFound, Address: a}
}

// NotFound builds a LookupResult for a code the service does not know.
func NotFound() LookupResult {
	return LookupResult{Status: LookupNotFound}
}

// TransportFailure builds a LookupResult for a failed request.
func TransportFailure(err error) LookupResult {
	return LookupResult{Status: LookupTransportError, Err: err}
}

// AddressLookup resolves a normalized eight-digit postal code.
type AddressLookup interface {
	Lookup(ctx context.Context, code string) LookupResult
}
