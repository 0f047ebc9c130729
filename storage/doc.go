// Package storage reads patient profile objects from a bucket or a local
// directory.
package storage
