// Package metrics holds the engine's in-process counters: fixed IDs,
// atomic increments, and a deep-copy snapshot. It deliberately has no
// dependencies; exporters belong to the host application.
package metrics
