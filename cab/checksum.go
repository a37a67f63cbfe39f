package cab

import "encoding/binary"

// checksum computes the MS-CAB CFDATA checksum: data is XOR-folded as
// little-endian 32-bit words, any trailing 1-3 bytes are folded in as
// a final partial word with the first of them in the highest position
// (as cabextract does), and seed lets callers thread a running value
// through successive calls (the writer uses this to fold the 4-byte
// compressed/uncompressed size header on top of the block checksum).
func checksum(data []byte, seed uint32) uint32 {
	csum := seed
	n := len(data)
	full := n - n%4
	for i := 0; i < full; i += 4 {
		csum ^= binary.LittleEndian.Uint32(data[i : i+4])
	}
	var tail uint32
	for _, b := range data[full:] {
		tail = tail<<8 | uint32(b)
	}
	csum ^= tail
	return csum
}
