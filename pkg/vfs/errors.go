package vfs

import "errors"

var (
	ErrNotFound          = errors.New("no such file or directory")
	ErrAlreadyExists     = errors.New("file exists")
	ErrDestinationExists = errors.New("destination exists")
	ErrNotDirectory      = errors.New("not a directory")
	ErrIsDirectory       = errors.New("is a directory")
	ErrNotEmpty          = errors.New("directory not empty")
	ErrRootImmutable     = errors.New("operation not permitted on root")
	ErrInvalidName       = errors.New("invalid name")
	ErrInvalidOperation  = errors.New("invalid operation")
)

// PathError records a failed operation and the path that caused it.
type PathError struct {
	Op   string
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *PathError) Unwrap() error {
	return e.Err
}

func pathErr(op, path string, err error) error {
	return &PathError{Op: op, Path: path, Err: err}
}
