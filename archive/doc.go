// Package archive persists finished interview sessions in SQLite.
package archive
