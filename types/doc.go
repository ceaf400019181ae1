// Package types defines the entity model shared by every layer of the
// coordination substrate: agent identities and capability manifests,
// inter-agent messages, marketplace listings and orders, and knowledge
// entries.
//
// All entities serialize to JSON with snake_case field names; the persisted
// documents are meant to be human-readable. Fields that are derived once at
// construction time (generated ids, the manifest content hash, expiry
// timestamps) are regular struct fields so that a serialize/deserialize
// round trip reproduces them exactly. Properties that are cheap to recompute
// (expiry checks, relevance scores, profit margins) are methods instead.
package types
