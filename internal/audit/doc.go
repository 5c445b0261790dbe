// Package audit carries the structured audit event model and sink
// implementations used by the engine. It is internal: the root package
// re-exports the types callers need.
package audit
