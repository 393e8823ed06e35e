package iface

import (
	"errors"
	"io/fs"
	"os/exec"
	"strings"

	"github.com/spoofmac/spoofmac/internal/tools"
)

var (
	ErrPermission    = errors.New("permission denied")
	ErrNotFound      = errors.New("not found")
	ErrCommandFailed = errors.New("command failed")
	ErrUnsupported   = errors.New("not supported on this platform")
)

// OpError records the platform operation that failed. It matches one of
// the sentinel kinds above and the underlying cause (often a
// *tools.CommandError) via errors.Is / errors.As.
type OpError struct {
	Op    string
	Iface string
	Kind  error
	Err   error
}

func (e *OpError) Error() string {
	if e.Iface == "" {
		return e.Op + ": " + e.Err.Error()
	}
	return e.Op + " " + e.Iface + ": " + e.Err.Error()
}

func (e *OpError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

var permissionHints = []string{
	"operation not permitted",
	"permission denied",
	"access is denied",
	"requires elevation",
	"run as administrator",
	"must be root",
}

var notFoundHints = []string{
	"does not exist",
	"no such device",
	"cannot find device",
	"not found",
	"no msft_netadapter objects",
	"interface name is not registered",
}

func wrapOp(op, name string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Iface: name, Kind: classify(err), Err: err}
}

func classify(err error) error {
	switch {
	case errors.Is(err, exec.ErrNotFound):
		// missing binary, not a missing interface
		return ErrCommandFailed
	case errors.Is(err, fs.ErrPermission):
		return ErrPermission
	case errors.Is(err, fs.ErrNotExist):
		return ErrNotFound
	}

	text := strings.ToLower(err.Error())
	var cmdErr *tools.CommandError
	if errors.As(err, &cmdErr) {
		text = strings.ToLower(cmdErr.Output) + "\n" + text
	}

	for _, h := range permissionHints {
		if strings.Contains(text, h) {
			return ErrPermission
		}
	}
	for _, h := range notFoundHints {
		if strings.Contains(text, h) {
			return ErrNotFound
		}
	}
	return ErrCommandFailed
}
