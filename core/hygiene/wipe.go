package hygiene

import "github.com/awnumar/memguard"

// SecureWipe overwrites buf with random bytes and then zeroes it.
func SecureWipe(buf []byte) {
	if len(buf) == 0 {
		return
	}
	memguard.ScrambleBytes(buf)
	memguard.WipeBytes(buf)
}

// SecureWipeAll wipes every buffer in bufs.
func SecureWipeAll(bufs ...[]byte) {
	for _, b := range bufs {
		SecureWipe(b)
	}
}
