/*
Package errors provides semantic error types for docstore.

The package defines the failure modes of the access layer with specific types
that can be checked using the standard errors.Is() function or the provided
helper functions.

Common Errors:

	var (
	    ErrNotFound             = errors.New("document not found")
	    ErrAlreadyExists        = errors.New("document already exists")
	    ErrInvalidInput         = errors.New("invalid input")
	    ErrMissingIdentifier    = errors.New("missing identifier")
	    ErrMalformedPredicate   = errors.New("malformed predicate")
	    ErrAmbiguousComposition = errors.New("must have either a pair or a list, but not both")
	    ErrPaginationConflict   = errors.New("pagination conflict")
	    ErrParameterMismatch    = errors.New("parameter mismatch")
	    ErrStorageUnavailable   = errors.New("storage unavailable")
	    ErrUnsupportedQuery     = errors.New("unsupported query")
	)

Usage:

	updated, err := dao.Update(ctx, partial, "User")
	if err != nil {
	    if errors.IsMissingIdentifier(err) {
	        // Caller bug: the record carried no id
	        return nil, err
	    }
	    if errors.IsStorageUnavailable(err) {
	        // The underlying client failed; retries belong to the client
	        return nil, err
	    }
	    return nil, err
	}

	// Create typed errors
	err := errors.NewNotFoundError("document", "123")
	err := errors.NewValidationError("type", "must not be empty")
	err := errors.NewPaginationConflictError("top", "paginate")

The error types implement the error interface and support wrapping,
making them compatible with Go's standard error handling patterns.
*/
package errors
