// Package imagemeta implements an event-driven metadata pipeline for an image
// content store.
//
// Object lifecycle notifications arrive as nested transport envelopes (an SQS
// delivery wrapping an SNS notification wrapping a list of store-level event
// records). The pipeline normalizes the envelopes into ObjectEvents, classifies
// each as a creation or removal, validates creations against the allowed
// extension policy, and applies idempotent writes to the record store. A
// separate update channel carries field-scoped enrichment mutations that are
// applied only when the target record already exists.
//
// Delivery is at-least-once. Correctness rests on the operation contracts of
// the RecordStore (owned-field upsert, conditional update, idempotent delete),
// not on deduplication or locking. Failures classified as retryable are
// re-raised out of the per-message handler so the transport's redelivery and
// dead-letter mechanism governs retries; no component retries internally.
package imagemeta
