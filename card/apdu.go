package card

// FID is a 16-bit ISO 7816 file identifier.
type FID uint16

// Fixed file identifiers used throughout the card session and
// fiscal-seal layers.
const (
	FIDMasterFile    FID = 0x3F00
	FIDSiaeDomain    FID = 0x0000
	FIDPKIApp        FID = 0x1111
	FIDSealContainer FID = 0x1112
	FIDCounter       FID = 0x1000
	FIDBalance       FID = 0x1001
	FIDGDO           FID = 0x2F02 // serial number
	FIDKeyInfo       FID = 0x5F02
)

// CertificateFID returns the certificate EF for the given key id, in
// the 1Axx range.
func CertificateFID(keyID byte) FID {
	return FID(0x1A00 | uint16(keyID))
}

// header is a fixed 4-byte APDU class/instruction/parameter prefix
// from a closed command catalogue. Only these headers are ever sent;
// there is no general-purpose "send arbitrary APDU" entry point
// exposed outside this package.
type header [4]byte

var (
	hdrSelect            = header{0x00, 0xA4, 0x00, 0x00}
	hdrReadBinary        = header{0x00, 0xB0, 0x00, 0x00}
	hdrReadRecord        = header{0x00, 0xB2, 0x00, 0x04}
	hdrVerifyPin         = header{0x00, 0x20, 0x00, 0x81}
	hdrChangeReferenceData = header{0x00, 0x24, 0x00, 0x81}
	hdrResetRetryCounter = header{0x00, 0x2C, 0x00, 0x81}
	hdrReadCounter       = header{0x00, 0x32, 0x00, 0x01}
	hdrComputeSeal       = header{0x00, 0x32, 0x83, 0x12}
	hdrMSERestore        = header{0x00, 0x22, 0xF3, 0x01}
	hdrMSESet            = header{0x00, 0x22, 0xF1, 0xB8}
	hdrPSOSign           = header{0x00, 0x2A, 0x80, 0x86}
)

// apdu is a fully-formed command: header, optional Lc+data, optional Le.
// le < 0 means "no Le byte"; le == 0 means "Le byte present with value
// 256" (ISO 7816-3 short form).
type apdu struct {
	hdr  header
	data []byte
	le   int
}

func (a apdu) bytes() []byte {
	buf := make([]byte, 0, 4+1+len(a.data)+1)
	buf = append(buf, a.hdr[:]...)
	if len(a.data) > 0 {
		buf = append(buf, byte(len(a.data)))
		buf = append(buf, a.data...)
	}
	if a.le >= 0 {
		buf = append(buf, byte(a.le))
	}
	return buf
}

// SW is a two-byte ISO 7816 status word.
type SW uint16

func swFromResponse(resp []byte) (data []byte, sw SW, ok bool) {
	if len(resp) < 2 {
		return nil, 0, false
	}
	n := len(resp)
	sw = SW(uint16(resp[n-2])<<8 | uint16(resp[n-1]))
	return resp[:n-2], sw, true
}

func (sw SW) success() bool { return sw == 0x9000 }
