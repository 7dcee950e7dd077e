package gitstore

import "errors"

// errIndexUnsupported is returned by DiffTreeToIndex when the repository's
// Storer doesn't implement storer.IndexStorer. go-git's own filesystem and
// in-memory storers both implement it, so this should never surface
// outside of an unusual custom Storer.
var errIndexUnsupported = errors.New("gitstore: repository storer does not support reading the index")
