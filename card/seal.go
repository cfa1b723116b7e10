package card

import "github.com/bit4id/siaep7/carderr"

// ReadCounterRaw sends READ COUNTER against whatever EF is currently
// selected and parses the 4-byte big-endian unsigned value. Used by
// package fiscalseal for both the transaction counter and the balance,
// which differ only in which EF was selected beforehand.
func (m *Manager) ReadCounterRaw(slot int) (uint32, error) {
	data, sw, err := m.sendAPDU(slot, apdu{hdr: hdrReadCounter, le: 4})
	if err != nil {
		return 0, err
	}
	if !sw.success() {
		return 0, carderr.New("card.ReadCounterRaw", carderr.Code(sw))
	}
	if len(data) < 4 {
		return 0, carderr.New("card.ReadCounterRaw", carderr.GenericError)
	}
	return be32(data), nil
}

// ComputeSealRaw sends COMPUTE SEAL with the 22-byte challenge and
// splits the 12-byte response into a 4-byte counter prefix and an
// 8-byte MAC.
func (m *Manager) ComputeSealRaw(slot int, challenge [22]byte) (counter uint32, mac [8]byte, err error) {
	data, sw, err := m.sendAPDU(slot, apdu{hdr: hdrComputeSeal, data: challenge[:], le: 12})
	if err != nil {
		return 0, mac, err
	}
	if !sw.success() {
		return 0, mac, carderr.New("card.ComputeSealRaw", carderr.Code(sw))
	}
	if len(data) < 12 {
		return 0, mac, carderr.New("card.ComputeSealRaw", carderr.GenericError)
	}
	counter = be32(data[:4])
	copy(mac[:], data[4:12])
	return counter, mac, nil
}

func be32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}
