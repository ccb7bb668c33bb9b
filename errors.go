package exiv2

import (
	"errors"

	"github.com/dsoprea/go-logging"
)

var (
	coreLogger = log.NewLogger("exiv2.core")
)

// Error taxonomy for the component tree (spec.md §7). Every entry is a
// sentinel so callers can distinguish cases with log.Is(err, ErrX), the same
// pattern the teacher uses for ErrTagEntryNotFound.
var (
	// ErrCorruptedMetadata is raised when a pointer or length escapes the
	// source buffer. The subtree being parsed is abandoned, not the whole
	// tree.
	ErrCorruptedMetadata = errors.New("corrupted metadata")

	// ErrArithmeticOverflow is raised when count*typeSize (or baseOffset+
	// offset) would overflow the width of the field doing the arithmetic.
	ErrArithmeticOverflow = errors.New("arithmetic overflow")

	// ErrUnknownTag is raised when the TagRegistry has no Kind for a
	// (tag, group) pair. The entry is dropped, not the directory.
	ErrUnknownTag = errors.New("unknown tag")

	// ErrUnknownType is raised when a TIFF type code isn't recognized. Size
	// defaults to 1 and parsing continues.
	ErrUnknownType = errors.New("unknown tiff type")

	// ErrCircularReference is raised when a directory start pointer has
	// already been read in this tree.
	ErrCircularReference = errors.New("circular directory reference")

	// ErrUnknownMakernote is raised when a vendor maker-note header fails to
	// parse; the IfdMakernote node stays attached but its inner directory is
	// not read.
	ErrUnknownMakernote = errors.New("unknown makernote header")

	// ErrDuplicateBinaryArray is raised for a second (tag, group) binary
	// array queued under a different idx.
	ErrDuplicateBinaryArray = errors.New("duplicate binary array")

	// ErrTagNotFound is returned by Finder when no node matches (tag, group).
	ErrTagNotFound = errors.New("tag not found in tree")

	// ErrNotAttachable is a programmer error: an attempt to attach a node
	// that already has a parent, or attach to a node kind that can't own
	// children.
	ErrNotAttachable = errors.New("node not attachable here")
)
