// Package localcorpus acquires documents from a directory of book files on
// disk. It serves as the secondary corpus the fallback cascade widens into
// when the indexed material cannot answer a question.
//
// Identifiers are prefixed with "local_" so they never collide with archive
// identifiers. Supported formats are plain text and EPUB; anything else is
// ignored during the scan.
package localcorpus
