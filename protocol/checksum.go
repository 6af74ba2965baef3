package protocol

// Checksum computes the one-byte frame checksum: the sum of p modulo 256,
// bitwise-complemented (equivalently 0xFF minus the low byte of the sum).
//
// Frames cover every byte between the two-byte start marker and the
// checksum itself, i.e. header fields and data but not the marker.
func Checksum(p []byte) byte {
	var sum uint32
	for _, v := range p {
		sum += uint32(v)
	}

	return ^byte(sum)
}
