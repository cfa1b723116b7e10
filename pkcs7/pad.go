// Package pkcs7 builds the CMS SignedData structure the on-card RSA
// key signs, padding its input per PKCS#1 v1.5 the way the card's
// PSO:SIGN command expects it: the caller does the hashing and
// padding, the card only ever sees a full 128-byte block to exponentiate.
package pkcs7

import "fmt"

// sha1DigestInfoPrefix is the fixed DER prefix of a PKCS#1 DigestInfo
// wrapping a SHA-1 digest: SEQUENCE { SEQUENCE { OID sha1, NULL }, OCTET STRING }
// with the OCTET STRING length (0x14 = 20) baked in, since the digest
// length never varies for SHA-1.
var sha1DigestInfoPrefix = []byte{
	0x30, 0x21, 0x30, 0x09, 0x06, 0x05, 0x2B, 0x0E, 0x03, 0x02, 0x1A, 0x05, 0x00, 0x04, 0x14,
}

// KeyModulusBytes is the modulus size the on-card key uses (1024-bit RSA).
const KeyModulusBytes = 128

// PadSHA1 builds a PKCS#1 v1.5 block for a SHA-1 digest, sized exactly
// to KeyModulusBytes: 0x00 0x01 [0xFF padding] 0x00 [DigestInfo(digest)].
func PadSHA1(digest [20]byte) ([]byte, error) {
	info := make([]byte, 0, len(sha1DigestInfoPrefix)+len(digest))
	info = append(info, sha1DigestInfoPrefix...)
	info = append(info, digest[:]...)
	return pad(info)
}

func pad(digestInfo []byte) ([]byte, error) {
	// 0x00 0x01 || 0xFF*n || 0x00 || digestInfo, total KeyModulusBytes
	fixed := 3 + len(digestInfo)
	if fixed > KeyModulusBytes {
		return nil, fmt.Errorf("pkcs7: digestInfo too large for a %d-byte key", KeyModulusBytes)
	}
	n := KeyModulusBytes - fixed
	out := make([]byte, 0, KeyModulusBytes)
	out = append(out, 0x00, 0x01)
	for i := 0; i < n; i++ {
		out = append(out, 0xFF)
	}
	out = append(out, 0x00)
	out = append(out, digestInfo...)
	return out, nil
}
