// Package storage owns the durable state of the pipeline: postings,
// recipients and delivery records, all in a single SQLite file.
//
// SQLite is opened with one writer connection (WAL + busy_timeout), so
// the uniqueness invariants on postings.link and on the
// (posting, recipient) delivery pair hold even if callers overlap.
package storage
