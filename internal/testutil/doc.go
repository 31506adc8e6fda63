// Package testutil provides shared helpers for tests: fluent message
// builders and in-memory fakes for the store and profile interfaces.
package testutil
