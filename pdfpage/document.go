package pdfpage

import "context"

// Opener turns raw document bytes into a Document handle.
// Decode failures must wrap ErrDecode.
type Opener interface {
	Open(ctx context.Context, data []byte) (Document, error)
}

// Document is a decoded document handle. The extractor acquires exactly one
// per call and always releases it with Cleanup followed by Destroy.
type Document interface {
	PageCount() int
	// Page returns the items, styles and rotation of the 1-based page n.
	Page(ctx context.Context, n int) (*Page, error)
	Cleanup() error
	Destroy() error
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(ctx context.Context, data []byte) (Document, error)

// Open calls f(ctx, data).
func (f OpenerFunc) Open(ctx context.Context, data []byte) (Document, error) {
	return f(ctx, data)
}
