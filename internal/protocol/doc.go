// Package protocol owns FIX text primitives shared by every other package.
//
// Ownership boundary:
// - delimiter normalization and tag=value tokenizing
// - protocol version identities and their dictionary references
// - sentinel errors for malformed input and unresolvable versions
package protocol
