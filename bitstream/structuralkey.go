package bitstream

import "github.com/cespare/xxhash/v2"

// StructuralKey hashes the canonical byte serialization of a value for
// use as a back_reference compression-dictionary key (spec.md §4.4:
// "compute a structural key for the value"). xxhash is the pack's own
// choice for exactly this class of problem — fast, non-cryptographic,
// content-addressed deduplication (arloliu/mebo uses it for the same
// purpose over metric blobs) — so the generated encoder calls this
// rather than hashing by hand or keying the dictionary on a raw string
// copy of the bytes.
func StructuralKey(encoded []byte) uint64 {
	return xxhash.Sum64(encoded)
}
