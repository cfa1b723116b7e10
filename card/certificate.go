package card

import "fmt"

// GetCertificate selects the PKI application and the certificate EF
// for keyID, then reads the DER-encoded certificate it holds. It
// first reads just the TLV header to learn the certificate's full
// encoded length, since certificate sizes vary and READ BINARY needs
// an exact byte count to read the rest in one pass.
func (m *Manager) GetCertificate(slot int, keyID byte) ([]byte, error) {
	if err := m.BeginTransaction(slot); err != nil {
		return nil, err
	}
	defer m.EndTransaction(slot)

	if err := m.Select(slot, FIDPKIApp); err != nil {
		return nil, err
	}
	if err := m.Select(slot, CertificateFID(keyID)); err != nil {
		return nil, err
	}

	header := make([]byte, 6)
	if _, err := m.ReadBinary(slot, 0, header); err != nil {
		return nil, err
	}
	total, err := derTotalLen(header)
	if err != nil {
		return nil, err
	}

	cert := make([]byte, total)
	if _, err := m.ReadBinary(slot, 0, cert); err != nil {
		return nil, err
	}
	return cert, nil
}

// derTotalLen returns the full encoded length (header plus content) of
// the DER TLV starting at header[0], without requiring header to
// contain the value itself: certificate EFs never use multi-byte tag
// numbers, so only the length octets need decoding here.
func derTotalLen(header []byte) (int, error) {
	if len(header) < 2 {
		return 0, fmt.Errorf("card: short DER header")
	}
	off := 1
	lenByte := header[off]
	off++
	if lenByte&0x80 == 0 {
		return off + int(lenByte), nil
	}
	n := int(lenByte &^ 0x80)
	if n == 0 || off+n > len(header) {
		return 0, fmt.Errorf("card: DER length needs %d octets, only %d available in header", n, len(header)-off)
	}
	valueLen := 0
	for i := 0; i < n; i++ {
		valueLen = valueLen<<8 | int(header[off])
		off++
	}
	return off + valueLen, nil
}
