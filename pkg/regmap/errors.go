package regmap

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedDescriptor is returned when a declaration cannot be
	// normalized. The concrete error is a *DescriptorError.
	ErrMalformedDescriptor = errors.New("regmap: malformed descriptor")

	ErrPathNotFound    = errors.New("regmap: path not found")
	ErrAddressNotFound = errors.New("regmap: address not used by any register")
	ErrReadOnly        = errors.New("regmap: register is read-only")
	ErrUnknownSymbol   = errors.New("regmap: unknown symbol")
	ErrInvalidValue    = errors.New("regmap: invalid value")
)

// DescriptorError reports the declaration that failed normalization.
type DescriptorError struct {
	Path   string
	Reason string
}

func (e *DescriptorError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("regmap: malformed descriptor: %s", e.Reason)
	}
	return fmt.Sprintf("regmap: malformed descriptor %s: %s", e.Path, e.Reason)
}

func (e *DescriptorError) Is(target error) bool {
	return target == ErrMalformedDescriptor
}

func malformed(path, format string, args ...any) error {
	return &DescriptorError{Path: path, Reason: fmt.Sprintf(format, args...)}
}
