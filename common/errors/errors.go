package errors

import (
	"errors"
	"fmt"
)

var (
	ErrSchemaNotMatch        = errors.New("schema not match")
	ErrInvalidPath           = errors.New("invalid path")
	ErrNoEndpoint            = errors.New("no endpoint is specified")
	ErrUnknownFsScheme       = errors.New("unknown fs scheme")
	ErrUnknownEntityType     = errors.New("unknown entity type")
	ErrUnknownCompression    = errors.New("unknown compression codec")
	ErrInvalidPartitionCount = errors.New("partition count must be at least 1")
	ErrPartitionOutOfRange   = errors.New("partition index out of range")
	ErrWriterClosed          = errors.New("writer is not open")
	ErrPoolInitialized       = errors.New("writer pool already initialized")
	ErrPoolCompleted         = errors.New("writer pool is completing")
	ErrSinkNotInitialized    = errors.New("sink is not initialized")
	ErrSinkFailed            = errors.New("sink has failed")
	ErrFilterPanic           = errors.New("filter panicked")
	ErrFileNotExist          = errors.New("file not exist")
	ErrDirNotExist           = errors.New("directory not exist")
)

// InitializationError reports a writer that could not be opened. Writers
// opened before the failure have already been released.
type InitializationError struct {
	Path string
	Err  error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("unable to build writer %s: %v", e.Path, e.Err)
}

func (e *InitializationError) Unwrap() error {
	return e.Err
}

// WriteError reports a failed append to one partition.
type WriteError struct {
	Partition int
	Path      string
	Err       error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("unable to write entity to partition %d (%s): %v", e.Partition, e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// CloseError carries the first close failure. Failed counts every writer
// whose close returned an error.
type CloseError struct {
	Path   string
	Failed int
	Err    error
}

func (e *CloseError) Error() string {
	return fmt.Sprintf("unable to close writers (%d failed), first %s: %v", e.Failed, e.Path, e.Err)
}

func (e *CloseError) Unwrap() error {
	return e.Err
}
