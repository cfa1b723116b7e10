package card

import (
	"github.com/bit4id/siaep7/carderr"
	"github.com/bit4id/siaep7/internal/telemetry"
)

// Sign performs the on-card RSA signature: MSE RESTORE, MSE SET
// selecting keyID, then PSO:SIGN over the 128-byte padded input,
// returning the raw 128-byte signature. pkcs7.Sign is the only caller.
func (m *Manager) Sign(slot int, keyID byte, padded []byte) ([]byte, error) {
	if len(padded) != 128 {
		return nil, carderr.New("card.Sign", carderr.GenericError)
	}
	if err := m.BeginTransaction(slot); err != nil {
		return nil, err
	}
	defer m.EndTransaction(slot)

	if _, sw, err := m.sendAPDU(slot, apdu{hdr: hdrMSERestore, le: -1}); err != nil {
		return nil, err
	} else if !sw.success() {
		return nil, carderr.New("card.Sign(MSE RESTORE)", carderr.Code(sw))
	}

	mseData := []byte{0x83, 0x01, keyID}
	if _, sw, err := m.sendAPDU(slot, apdu{hdr: hdrMSESet, data: mseData, le: -1}); err != nil {
		return nil, err
	} else if !sw.success() {
		return nil, carderr.New("card.Sign(MSE SET)", carderr.Code(sw))
	}

	sig, sw, err := m.sendAPDU(slot, apdu{hdr: hdrPSOSign, data: padded, le: 128})
	if err != nil {
		return nil, err
	}
	if !sw.success() {
		return nil, carderr.New("card.Sign(PSO SIGN)", carderr.Code(sw))
	}
	telemetry.SignaturesProduced.WithLabelValues(slotLabel(slot)).Inc()
	out := make([]byte, len(sig))
	copy(out, sig)
	return out, nil
}
