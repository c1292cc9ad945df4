package imap

import (
	"errors"
	"fmt"
)

// FaultKind classifies every failure the mail core can surface. The web
// layer maps kinds to status codes; nothing else about a fault is part of
// the caller contract.
type FaultKind string

const (
	// FaultConnection covers TCP/TLS establishment failures, I/O errors
	// on an open session, timeouts, and context cancellation.
	FaultConnection FaultKind = "connection"

	// FaultAuth means the delegated login was rejected by the server.
	FaultAuth FaultKind = "auth"

	// FaultFolderNotFound means the target folder does not exist or is
	// not selectable.
	FaultFolderNotFound FaultKind = "folder-not-found"

	// FaultProtocol covers malformed, short, or otherwise unexpected
	// server responses.
	FaultProtocol FaultKind = "protocol"
)

// Fault is the error type returned by the session and the service. Every
// fault is raised at the point of detection and propagated unchanged; no
// fault is swallowed, retried, or downgraded.
type Fault struct {
	Kind    FaultKind
	Message string
	Err     error
}

func (f *Fault) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("imap %s: %s: %v", f.Kind, f.Message, f.Err)
	}
	return fmt.Sprintf("imap %s: %s", f.Kind, f.Message)
}

func (f *Fault) Unwrap() error {
	return f.Err
}

func connectionFault(msg string, err error) *Fault {
	return &Fault{Kind: FaultConnection, Message: msg, Err: err}
}

func authFault(msg string) *Fault {
	return &Fault{Kind: FaultAuth, Message: msg}
}

func folderFault(msg string) *Fault {
	return &Fault{Kind: FaultFolderNotFound, Message: msg}
}

func protocolFault(format string, args ...any) *Fault {
	return &Fault{Kind: FaultProtocol, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the fault kind of err, or "" when err is not a Fault.
func KindOf(err error) FaultKind {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind
	}
	return ""
}

// IsAuthFault reports whether err (or any error in its chain) is an
// authentication fault.
func IsAuthFault(err error) bool {
	return KindOf(err) == FaultAuth
}

// IsFolderNotFound reports whether err is a missing-folder fault.
func IsFolderNotFound(err error) bool {
	return KindOf(err) == FaultFolderNotFound
}
