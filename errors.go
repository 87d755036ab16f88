package xref

import (
	"errors"

	"github.com/hupe1980/xref/config"
	"github.com/hupe1980/xref/internal/task"
	ixref "github.com/hupe1980/xref/internal/xref"
)

var (
	// ErrInvalidConfig is wrapped by every configuration error.
	ErrInvalidConfig = config.ErrInvalidConfig
	// ErrNotFound is returned when an identifier is not in the cross reference.
	ErrNotFound = ixref.ErrNotFound
	// ErrUnknownProperty is returned for references to unregistered properties.
	ErrUnknownProperty = ixref.ErrUnknownProperty
	// ErrDuplicateProperty is returned when a property is registered twice.
	ErrDuplicateProperty = ixref.ErrDuplicateProperty
	// ErrAlreadyStarted is returned when Startup is called twice.
	ErrAlreadyStarted = errors.New("xref: builder already started")
	// ErrNotStarted is returned when records are processed before Startup.
	ErrNotStarted = errors.New("xref: builder not started")
	// ErrFlushed is returned when a builder is used after Flush.
	ErrFlushed = errors.New("xref: builder already flushed")
	// ErrClosed is returned when a closed Mapping is used.
	ErrClosed = errors.New("xref: mapping closed")
)

// ConfigError describes a malformed or missing configuration entry.
//
// errors.Is(err, ErrInvalidConfig) holds for every ConfigError.
type ConfigError = config.Error

// ReadError is a fatal failure to read an input record file. It carries the
// file name and the byte offset of the failing record.
type ReadError = task.ReadError
