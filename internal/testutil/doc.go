// Package testutil contains helper builders and fakes used across tests to
// reduce boilerplate when constructing transcripts and scripting voice
// sessions. They are not intended for production usage.
package testutil
