// Package absorberr defines the driver's error kinds. ObjectStoreError,
// DiffParseError and PathResolutionError abort a run; NoDestination and
// StatusSkipped are logged and the run continues.
package absorberr

import (
	"fmt"

	"github.com/pkg/errors"

	"absorb/internal/owned"
)

// ObjectStoreError wraps a failure from an object-store operation (read
// commit, read tree, read blob, write tree, write commit, ...).
type ObjectStoreError struct {
	Op  string
	Err error
}

func (e *ObjectStoreError) Error() string {
	return fmt.Sprintf("object store: %s: %v", e.Op, e.Err)
}

func (e *ObjectStoreError) Unwrap() error { return e.Err }

// WrapObjectStore builds an ObjectStoreError carrying a stack trace from
// the point of the failing call.
func WrapObjectStore(op string, err error) error {
	if err == nil {
		return nil
	}
	return errors.WithStack(&ObjectStoreError{Op: op, Err: err})
}

// DiffParseError wraps a failure parsing raw diff text into the owned
// model.
type DiffParseError struct {
	Err error
}

func (e *DiffParseError) Error() string { return fmt.Sprintf("diff parse: %v", e.Err) }
func (e *DiffParseError) Unwrap() error { return e.Err }

// WrapDiffParse builds a DiffParseError carrying a stack trace.
func WrapDiffParse(err error) error {
	if err == nil {
		return nil
	}
	return errors.WithStack(&DiffParseError{Err: err})
}

// PathResolutionError wraps a failure resolving or retranslating a path
// during commutation (e.g. a rename step the patch doesn't account for).
type PathResolutionError struct {
	Path []byte
	Err  error
}

func (e *PathResolutionError) Error() string {
	return fmt.Sprintf("path resolution for %q: %v", e.Path, e.Err)
}
func (e *PathResolutionError) Unwrap() error { return e.Err }

// WrapPathResolution builds a PathResolutionError carrying a stack trace.
func WrapPathResolution(path []byte, err error) error {
	if err == nil {
		return nil
	}
	return errors.WithStack(&PathResolutionError{Path: path, Err: err})
}

// NoDestination means a hunk commuted past the entire stack without
// conflicting: there is no ancestor commit to absorb it into. Not
// propagated — the driver logs it and moves to the next hunk.
type NoDestination struct {
	Path []byte
}

func (e *NoDestination) Error() string {
	return fmt.Sprintf("no destination commit for hunk in %q", e.Path)
}

// StatusSkipped means a patch's status makes it ineligible for
// absorption (add, delete, rename+content-change combination the design
// leaves unsupported, ...). Not propagated — logged and skipped.
type StatusSkipped struct {
	Path   []byte
	Status owned.Status
}

func (e *StatusSkipped) Error() string {
	return fmt.Sprintf("skipped %q: status %s", e.Path, e.Status)
}
