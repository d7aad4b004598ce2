package shp

import (
	"fmt"

	"github.com/pkg/errors"
)

// Errors returned by the codec. Match them with errors.Is.
var (
	ErrMalformedHeader    = errors.New("shp: malformed file header")
	ErrMalformedSchema    = errors.New("shp: malformed field schema")
	ErrHeaderMismatch     = errors.New("shp: geometry and attribute record counts differ")
	ErrUnknownShapeType   = errors.New("shp: unknown shape type")
	ErrTruncatedRecord    = errors.New("shp: truncated record")
	ErrFieldDecode        = errors.New("shp: cannot decode field")
	ErrValueTooLong       = errors.New("shp: value too long for field")
	ErrSchemaMismatch     = errors.New("shp: record does not match schema")
	ErrShapeTypeMismatch  = errors.New("shp: shape type does not match file")
	ErrSchemaAlreadyFixed = errors.New("shp: schema already fixed")
	ErrIndexOutOfRange    = errors.New("shp: record index out of range")
	ErrClosed             = errors.New("shp: file already closed")
)

// RecordError reports a failure tied to a single record of a file.
type RecordError struct {
	File  string
	Index int
	Err   error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%s: record %d: %v", e.File, e.Index, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// Cause lets errors.Cause see through a RecordError.
func (e *RecordError) Cause() error { return e.Err }

func recordErr(file string, index int, err error) error {
	if err == nil {
		return nil
	}
	var re *RecordError
	if errors.As(err, &re) {
		return err
	}
	return &RecordError{File: file, Index: index, Err: err}
}
