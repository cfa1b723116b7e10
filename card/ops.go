package card

import (
	"github.com/bit4id/siaep7/carderr"
	"github.com/bit4id/siaep7/internal/telemetry"
)

// Select sends SELECT for the given FID inside its own transaction.
func (m *Manager) Select(slot int, fid FID) error {
	if err := m.BeginTransaction(slot); err != nil {
		return err
	}
	defer m.EndTransaction(slot)

	h := hdrSelect
	data := []byte{byte(fid >> 8), byte(fid)}
	_, sw, err := m.sendAPDU(slot, apdu{hdr: h, data: data, le: -1})
	if err != nil {
		return err
	}
	if !sw.success() {
		return carderr.New("card.Select", carderr.Code(sw))
	}
	return nil
}

// ReadBinary reads len(buf) bytes starting at offset, chunked at
// ExchangeBuffer bytes. If the card reports WRONG_LENGTH and the
// returned data is shorter than the exchange size, it stops and
// returns the partially filled prefix together with carderr.WrongLength.
func (m *Manager) ReadBinary(slot int, offset int, buf []byte) (int, error) {
	if err := m.BeginTransaction(slot); err != nil {
		return 0, err
	}
	defer m.EndTransaction(slot)

	total := 0
	for total < len(buf) {
		chunk := ExchangeBuffer
		if remaining := len(buf) - total; remaining < chunk {
			chunk = remaining
		}
		h := hdrReadBinary
		off := offset + total
		h[2] = byte(off >> 8)
		h[3] = byte(off)
		data, sw, err := m.sendAPDU(slot, apdu{hdr: h, le: chunk})
		if err != nil {
			return total, err
		}
		if sw == SW(carderr.WrongLength) {
			n := copy(buf[total:], data)
			total += n
			if len(data) < chunk {
				return total, carderr.New("card.ReadBinary", carderr.WrongLength)
			}
			continue
		}
		if !sw.success() {
			return total, carderr.New("card.ReadBinary", carderr.Code(sw))
		}
		n := copy(buf[total:], data)
		total += n
		if n < chunk {
			break
		}
	}
	return total, nil
}

// ReadRecord reads record n from the currently selected EF.
func (m *Manager) ReadRecord(slot int, n byte, buf []byte) (int, error) {
	if err := m.BeginTransaction(slot); err != nil {
		return 0, err
	}
	defer m.EndTransaction(slot)

	h := hdrReadRecord
	h[2] = n
	data, sw, err := m.sendAPDU(slot, apdu{hdr: h, le: len(buf)})
	if err != nil {
		return 0, err
	}
	if !sw.success() {
		return 0, carderr.New("card.ReadRecord", carderr.Code(sw))
	}
	return copy(buf, data), nil
}

// VerifyPin implements the retry algorithm: a wrong-length response is
// retried once with an 8-byte zero-padded PIN, and an auth failure
// re-issues an empty VERIFY to read back the remaining-tries counter
// carried in the resulting SW's low nibble.
func (m *Manager) VerifyPin(slot int, id byte, pin string) error {
	if err := m.BeginTransaction(slot); err != nil {
		return err
	}
	defer m.EndTransaction(slot)

	h := hdrVerifyPin
	h[2] = 0x00
	h[3] = 0x80 | id

	_, sw, err := m.sendAPDU(slot, apdu{hdr: h, data: []byte(pin), le: -1})
	if err != nil {
		return err
	}
	if sw == SW(carderr.WrongLen) || sw == 0x6700 {
		padded := padPin8(pin)
		_, sw, err = m.sendAPDU(slot, apdu{hdr: h, data: padded, le: -1})
		if err != nil {
			return err
		}
	}
	if sw == SW(0x6300) {
		telemetry.PinFailures.WithLabelValues(slotLabel(slot)).Inc()
		_, sw2, err := m.sendAPDU(slot, apdu{hdr: h, data: nil, le: -1})
		if err != nil {
			return err
		}
		tries, _ := carderr.RemainingTries(carderr.Code(sw2))
		e := carderr.New("card.VerifyPin", carderr.Code(sw2))
		e.Retries = tries
		return e
	}
	if !sw.success() {
		return carderr.New("card.VerifyPin", carderr.Code(sw))
	}
	return nil
}

func padPin8(pin string) []byte {
	buf := make([]byte, 8)
	n := copy(buf, pin)
	for i := n; i < 8; i++ {
		buf[i] = 0x00
	}
	return buf
}

// ChangePin sends CHANGE REFERENCE DATA with the old and new PIN
// concatenated, the standard ISO 7816-4 shape for this command.
func (m *Manager) ChangePin(slot int, id byte, oldPin, newPin string) error {
	if err := m.BeginTransaction(slot); err != nil {
		return err
	}
	defer m.EndTransaction(slot)

	h := hdrChangeReferenceData
	h[3] = 0x80 | id
	data := append([]byte(oldPin), []byte(newPin)...)
	_, sw, err := m.sendAPDU(slot, apdu{hdr: h, data: data, le: -1})
	if err != nil {
		return err
	}
	if !sw.success() {
		return carderr.New("card.ChangePin", carderr.Code(sw))
	}
	return nil
}

// UnblockPin sends RESET RETRY COUNTER with the PUK and new PIN.
func (m *Manager) UnblockPin(slot int, id byte, puk, newPin string) error {
	if err := m.BeginTransaction(slot); err != nil {
		return err
	}
	defer m.EndTransaction(slot)

	h := hdrResetRetryCounter
	h[3] = 0x80 | id
	data := append([]byte(puk), []byte(newPin)...)
	_, sw, err := m.sendAPDU(slot, apdu{hdr: h, data: data, le: -1})
	if err != nil {
		return err
	}
	if !sw.success() {
		return carderr.New("card.UnblockPin", carderr.Code(sw))
	}
	return nil
}
