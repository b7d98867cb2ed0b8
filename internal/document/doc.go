// Package document models the page-global UI resources that several views
// share: the background scroll lock and the document title.
//
// Both are handed out as leases. Whoever acquires one must release it, and
// releasing twice is a no-op, so a holder can release on every exit path
// with defer or on teardown without unbalancing the shared state.
package document
