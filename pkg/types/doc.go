// Package types defines the Store and table interfaces, the scene, custom
// field and column entities, and the standard errors shared by every slate
// component.
//
// Entity methods modify structs in memory; callers persist changes through
// the table interfaces. Identity is always the store-assigned ID, never the
// display scene number.
package types
