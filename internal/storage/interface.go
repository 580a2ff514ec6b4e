package storage

import "context"

// DocumentStore defines the interface for staging filing documents.
type DocumentStore interface {
	// Write stages one document under the company's directory and returns
	// its absolute path.
	Write(ctx context.Context, cik, filename string, data []byte) (string, error)

	// CompanyDir returns the absolute directory documents for a company
	// land in.
	CompanyDir(cik string) string

	// DirStats returns the file count and total byte size of a company's
	// directory.
	DirStats(cik string) (int, int64, error)
}
