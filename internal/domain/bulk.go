package domain

import "encoding/json"

// BulkResult partitions the records of one ingestion request by outcome.
// Each partition preserves the order the records had in the input.
type BulkResult struct {
	// Created holds the stored form of every newly created record.
	Created []json.RawMessage `json:"created"`
	// Skipped echoes, unmodified, every input that matched an existing
	// record under the dedup policy.
	Skipped []json.RawMessage `json:"skipped"`
	// Rejected pairs every failed input with the reason it failed.
	Rejected []RejectedRecord `json:"rejected"`
}

// RejectedRecord is one input that could not be ingested.
type RejectedRecord struct {
	Record json.RawMessage `json:"record"`
	Reason string          `json:"reason"`
	// Err is the classified failure, for callers that map outcomes to
	// responses. Not part of the wire format.
	Err error `json:"-"`
}
