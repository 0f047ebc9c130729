// Package pool provides the in-memory question and diagnosis stores that the
// interview engine reads and updates. Both stores are safe for concurrent use
// and return copies from every read.
package pool
