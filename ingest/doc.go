// Package ingest implements the ingestion pipeline: sources are extracted
// concurrently through a worker pool, chunked, embedded in bounded batches,
// and upserted into the vector index as one batch. Failures are isolated per
// source and surfaced in the ingestion result.
package ingest
