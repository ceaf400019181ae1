// Package discovery provides agent registration, discovery, and free-text
// capability matching over the shared agents document.
//
// The registry writes one record per agent (manifest, registration time,
// last heartbeat, status) and never deletes it: liveness is inferred from
// heartbeat age, not from removal. The matcher scores a natural-language
// query against a manifest's capability set with a cheap lexical heuristic;
// false negatives for paraphrased queries are expected and acceptable.
package discovery
