// Package fmkerr defines the error kinds flymake's core operations return.
//
// Every fallible operation in the core returns one of these kinds instead of
// an ad-hoc error string, so callers at the command layer can decide how (or
// whether) to print a diagnostic: a Custom error has already been printed at
// its site and must propagate silently.
package fmkerr

import "fmt"

// Kind identifies the category of a core error.
type Kind int

const (
	None Kind = iota
	Custom
	BadPath
	BadProgram
	BadManifest
	NotAProject
	NoFiles
	NotSameRoot
	NoRule
	CloneFailed
	WriteFailed
	Cycle
)

func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case Custom:
		return "custom"
	case BadPath:
		return "bad_path"
	case BadProgram:
		return "bad_program"
	case BadManifest:
		return "bad_manifest"
	case NotAProject:
		return "not_a_project"
	case NoFiles:
		return "no_files"
	case NotSameRoot:
		return "not_same_root"
	case NoRule:
		return "no_rule"
	case CloneFailed:
		return "clone_failed"
	case WriteFailed:
		return "write_failed"
	case Cycle:
		return "cycle"
	default:
		return "unknown"
	}
}

// Error wraps a Kind with the extra context (a path, a name, an underlying
// cause) that its surface prints.
type Error struct {
	Kind  Kind
	Extra string
	Err   error
}

func (e *Error) Error() string {
	if e.Err != nil {
		if e.Extra != "" {
			return fmt.Sprintf("%s: %s: %v", e.Kind, e.Extra, e.Err)
		}
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	if e.Extra != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Extra)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error of the given kind.
func New(kind Kind, extra string) *Error {
	return &Error{Kind: kind, Extra: extra}
}

// Wrap builds an *Error of the given kind around an underlying cause.
func Wrap(kind Kind, extra string, err error) *Error {
	return &Error{Kind: kind, Extra: extra, Err: err}
}

// IsCustom reports whether err is a *fmkerr.Error of Kind Custom — meaning
// a diagnostic was already printed at the site that produced it, and the
// caller must not print anything further.
func IsCustom(err error) bool {
	var fe *Error
	if e, ok := err.(*Error); ok {
		fe = e
	} else {
		return false
	}
	return fe.Kind == Custom
}

// KindOf extracts the Kind from a *fmkerr.Error. A nil err yields None; any
// other error that is not a *fmkerr.Error yields Custom.
func KindOf(err error) Kind {
	if e, ok := err.(*Error); ok {
		return e.Kind
	}
	if err != nil {
		return Custom
	}
	return None
}
