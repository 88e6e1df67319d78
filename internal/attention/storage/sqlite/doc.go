// Package sqlite persists attention sessions and their derived records:
// confusion events, heatmap bins, notes and the scored frame table.
//
// All SQL for the attention pipeline lives here so the layer packages
// (l1-l5) stay free of storage concerns. The schema is owned by
// internal/db migrations.
package sqlite
