package pdf

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDocument is returned when the supplied bytes cannot be read
	// as a PDF document.
	ErrInvalidDocument = errors.New("invalid PDF document")
	// ErrDocumentClosed is returned by every Document method after Close.
	ErrDocumentClosed = errors.New("document is closed")
	// ErrUnknownWidget is returned when a Widget was not produced by the
	// document it is passed to.
	ErrUnknownWidget = errors.New("widget does not belong to this document")
	// ErrRenameUnsupported is returned when a new name cannot be expressed
	// as a partial field name of the widget's field.
	ErrRenameUnsupported = errors.New("rename not supported for this field")
)

// DocumentError records the document operation that failed and the library
// error behind it.
type DocumentError struct {
	Op   string `json:"operation"`
	Page int    `json:"page,omitempty"`
	Err  error  `json:"error"`
}

func (e *DocumentError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("PDF %s failed on page %d: %v", e.Op, e.Page, e.Err)
	}
	return fmt.Sprintf("PDF %s failed: %v", e.Op, e.Err)
}

func (e *DocumentError) Unwrap() error {
	return e.Err
}
