// Package store provides conversation persistence implementations. The
// in-memory store backs development and tests; the gormstore subpackage
// persists turns to a relational database.
package store
