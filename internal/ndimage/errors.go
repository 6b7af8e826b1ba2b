package ndimage

import "errors"

// ErrInvalidArgument is returned for inputs the filters cannot work on:
// zero-dimensional or nil arrays, bad axes, empty or mismatched kernels.
var ErrInvalidArgument = errors.New("invalid argument")
