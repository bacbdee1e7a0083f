package resume

import (
	"errors"
	"strings"
)

// ErrInvalidImport matches every error returned by Import and ImportJSON.
var ErrInvalidImport = errors.New("resume: invalid import")

// ImportError describes why a candidate document was rejected. Missing lists
// absent top-level regions; Err carries a decoding failure.
type ImportError struct {
	Missing []string
	Err     error
}

func (e *ImportError) Error() string {
	if e == nil {
		return ErrInvalidImport.Error()
	}
	var b strings.Builder
	b.WriteString(ErrInvalidImport.Error())
	if len(e.Missing) > 0 {
		b.WriteString(": missing ")
		b.WriteString(strings.Join(e.Missing, ", "))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Is reports whether target is ErrInvalidImport.
func (e *ImportError) Is(target error) bool {
	return target == ErrInvalidImport
}

func (e *ImportError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
