package echo

// Checksum computes the RFC 1071 Internet checksum over b.
func Checksum(b []byte) uint16 {
	return ChecksumWith(nil, b)
}

// ChecksumWith computes the Internet checksum over pseudo followed by b.
// pseudo is expected to have even length (IPv6 pseudo-header is 40 bytes).
func ChecksumWith(pseudo, b []byte) uint16 {
	sum := sum16(0, pseudo)
	sum = sum16(sum, b)
	for sum>>16 != 0 {
		sum = (sum >> 16) + (sum & 0xffff)
	}
	return ^uint16(sum)
}

func sum16(sum uint32, b []byte) uint32 {
	n := len(b)
	for i := 0; i+1 < n; i += 2 {
		sum += uint32(b[i])<<8 | uint32(b[i+1])
	}
	// odd length: pad the trailing byte with zero
	if n%2 == 1 {
		sum += uint32(b[n-1]) << 8
	}
	return sum
}
