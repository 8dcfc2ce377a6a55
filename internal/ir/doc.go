// Package ir defines the constrained value model shared by every layer of
// the harness: props, state cell contents, memo outputs, and rendered trace
// entries are all Values.
//
// The model is deliberately small. Strings, int64 integers, booleans, arrays,
// objects, and the explicit Absent marker - nothing else. Floats and nulls
// are rejected at every construction site because trace verification depends
// on byte-identical canonical serialization, and both break that.
//
// Canonical serialization follows RFC 8785: object keys ordered by UTF-16
// code units, NFC normalized strings, no HTML escaping. Content-addressed
// IDs (EventID, OutputHash, RunID) are SHA-256 over the canonical form with
// domain separation.
package ir
