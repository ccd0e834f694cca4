// Package provider holds the transport-neutral results returned by external
// source adapters.
package provider

import "time"

// RawPayload is a document retrieved from an external source, before any
// parsing. Body is never a partial document.
type RawPayload struct {
	Body        []byte
	ContentType string
	SourceURL   string
	Attempts    int
	FetchedAt   time.Time
}
