package document

import "errors"

var (
	// ErrDocumentNotOpen indicates the document is not open.
	ErrDocumentNotOpen = errors.New("document not open")

	// ErrDocumentAlreadyOpen indicates the document is already open.
	ErrDocumentAlreadyOpen = errors.New("document already open")
)
