package index

import (
	"errors"
	"fmt"
)

// ErrDirectoryExists is the errors.Is target for every DirectoryExistsError.
var ErrDirectoryExists = errors.New("index directory already exists")

// ExistsReason identifies which precondition rejected index creation.
type ExistsReason int

const (
	// ReasonNotADirectory: the root path exists but is not a directory.
	ReasonNotADirectory ExistsReason = iota + 1
	// ReasonUnrelatedContent: the root is a non-empty directory that does not
	// hold an index under the requested name.
	ReasonUnrelatedContent
	// ReasonIndexExists: an index already exists under the requested name and
	// clear was not set.
	ReasonIndexExists
)

func (r ExistsReason) String() string {
	switch r {
	case ReasonNotADirectory:
		return "not a directory"
	case ReasonUnrelatedContent:
		return "unrelated content"
	case ReasonIndexExists:
		return "index exists"
	default:
		return "unknown"
	}
}

// DirectoryExistsError reports that Create refused to touch the root path.
// No index data is written before this error is returned.
type DirectoryExistsError struct {
	Dir    string
	Reason ExistsReason
}

func (e *DirectoryExistsError) Error() string {
	return fmt.Sprintf("index directory already exists: %q (%s)", e.Dir, e.Reason)
}

func (e *DirectoryExistsError) Is(target error) bool {
	return target == ErrDirectoryExists
}
