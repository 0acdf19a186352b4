// Package cache implements the gateway's hybrid response cache: an exact
// fingerprint-keyed store backed by redis and a semantic nearest-neighbor
// store backed by a vector index. The Gate combines both behind a single
// lookup/store surface with fail-open semantics: cache unavailability never
// fails a request, it only forces a fresh generation.
package cache
