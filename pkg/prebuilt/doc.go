// Package prebuilt provides opinionated, ready-made composition
// templates for common node arrangements such as a single viewer chain
// or a two-source merge. Each prebuilt assembles nodes and connections
// on an engine and returns handles to the nodes it created, leaving
// further customization to the caller.
package prebuilt
