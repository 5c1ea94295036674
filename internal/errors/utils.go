package errors

import (
	"errors"
)

// Wrap wraps an error with additional context, creating a HotsnipError if the input is not already one
func Wrap(err error, errType ErrorType, code, message string) *HotsnipError {
	if err == nil {
		return nil
	}

	// Keep the location of an inner HotsnipError
	var he *HotsnipError
	if errors.As(err, &he) {
		return &HotsnipError{
			Type:        errType,
			Code:        code,
			Message:     message,
			Cause:       he,
			Context:     he.Context,
			Component:   he.Component,
			FilePath:    he.FilePath,
			Recoverable: he.Recoverable,
		}
	}

	return &HotsnipError{
		Type:        errType,
		Code:        code,
		Message:     message,
		Cause:       err,
		Recoverable: errType == ErrorTypeParse || errType == ErrorTypeConflict,
	}
}

// WrapConflict wraps a backend failure as a registration conflict.
func WrapConflict(err error, code, message string) *HotsnipError {
	return Wrap(err, ErrorTypeConflict, code, message)
}

// WrapIO wraps an error as an I/O error
func WrapIO(err error, code, message string) *HotsnipError {
	hErr := Wrap(err, ErrorTypeIO, code, message)
	if hErr != nil {
		hErr.Recoverable = false
	}
	return hErr
}

// WrapConfig wraps an error as a configuration error
func WrapConfig(err error, code, message string) *HotsnipError {
	hErr := Wrap(err, ErrorTypeConfig, code, message)
	if hErr != nil {
		hErr.Recoverable = false
	}
	return hErr
}

// WrapInternal wraps an error as an internal error
func WrapInternal(err error, code, message string) *HotsnipError {
	hErr := Wrap(err, ErrorTypeInternal, code, message)
	if hErr != nil {
		hErr.Recoverable = false
	}
	return hErr
}

// Code returns the code of the outermost HotsnipError in err's chain, or "".
func Code(err error) string {
	var he *HotsnipError
	if errors.As(err, &he) {
		return he.Code
	}
	return ""
}
