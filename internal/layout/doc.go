// Package layout implements the page document operations: template
// resolution, section creation and removal, field patches, reordering and
// invariant checks.
//
// Every operation is copy-on-write. The *domain.Layout passed in is never
// modified; a changed document is always a fresh value, so callers may keep
// the previous version for history.
package layout
