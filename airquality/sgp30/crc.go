package sgp30

// crc8 computes the checksum the SGP30 appends to every 16-bit word
// on the wire (polynomial 0x31, init 0xff, no reflection).
func crc8(data []byte) byte {
	crc := byte(0xff)
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = crc<<1 ^ 0x31
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
