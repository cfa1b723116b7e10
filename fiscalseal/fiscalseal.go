// Package fiscalseal computes the "sigillo fiscale": the counter-bound
// MAC a SIAE-certified ticketing system must attach to each accounting
// record. It composes package card's primitives
// (Select, ReadCounterRaw, ComputeSealRaw) inside a single enclosing
// transaction, which holds the reader's exclusive PC/SC lock for the
// whole FID walk. The transaction depth is a counter, not a mutex:
// other goroutines of this process using the same slot, including a
// concurrent card.Manager.Finalize, are not held off by it.
package fiscalseal

import (
	"encoding/binary"
	"fmt"

	"github.com/bit4id/siaep7/card"
	"github.com/bit4id/siaep7/carderr"
	"github.com/bit4id/siaep7/internal/telemetry"
)

// cardManager is the subset of *card.Manager this package drives.
// package card has no dependency on fiscalseal, so importing card.FID
// directly here (rather than shadowing it) carries no import cycle.
type cardManager interface {
	BeginTransaction(slot int) error
	EndTransaction(slot int) error
	Select(slot int, fid card.FID) error
	ReadBinary(slot int, offset int, buf []byte) (int, error)
	ReadCounterRaw(slot int) (uint32, error)
	ComputeSealRaw(slot int, challenge [22]byte) (counter uint32, mac [8]byte, err error)
}

// The fixed FID walk: master file, the SIAE application DF, the seal
// container DF, then the terminal EF holding the value being read.
// fidCounter and fidBalance name two distinct EFs under the seal
// container, not the same file read two ways.
const (
	fidMasterFile    = card.FIDMasterFile
	fidSiaeDomain    = card.FIDSiaeDomain
	fidSealContainer = card.FIDSealContainer
	fidCounter       = card.FIDCounter
	fidBalance       = card.FIDBalance
	fidGDO           = card.FIDGDO
)

// Sigillo is the result of a fiscal seal computation: the counter
// value the card had at the moment of sealing, and the 8-byte MAC.
type Sigillo struct {
	Counter uint32
	MAC     [8]byte
}

// String renders the sigillo the way it's printed on a ticket: the
// counter followed by the MAC in uppercase hex, space-separated.
func (s Sigillo) String() string {
	return fmt.Sprintf("%010d %X", s.Counter, s.MAC[:])
}

func selectPath(m cardManager, slot int, fids ...card.FID) error {
	for _, fid := range fids {
		if err := m.Select(slot, fid); err != nil {
			return fmt.Errorf("fiscalseal: select %04X: %w", fid, err)
		}
	}
	return nil
}

// BuildChallenge lays out the 22-byte COMPUTE SEAL challenge: a fixed
// 00 01 command prefix, the card's 8-byte serial number, the 8-byte
// transaction date/time, and the 4-byte big-endian ticket price. This
// is the payload the ticket-accounting operation signs; callers never
// hand-assemble it.
func BuildChallenge(sn [8]byte, dateTime [8]byte, price uint32) [22]byte {
	var c [22]byte
	c[0] = 0x00
	c[1] = 0x01
	copy(c[2:10], sn[:])
	copy(c[10:18], dateTime[:])
	binary.BigEndian.PutUint32(c[18:22], price)
	return c
}

// ComputeSigillo walks MF -> SIAE domain -> seal container -> counter
// EF from scratch, builds the COMPUTE SEAL challenge from sn, dateTime
// and price, then issues COMPUTE SEAL, all inside one transaction.
func ComputeSigillo(m cardManager, slot int, sn [8]byte, dateTime [8]byte, price uint32) (Sigillo, error) {
	if err := m.BeginTransaction(slot); err != nil {
		return Sigillo{}, err
	}
	defer m.EndTransaction(slot)

	if err := selectPath(m, slot, fidMasterFile, fidSiaeDomain, fidSealContainer, fidCounter); err != nil {
		return Sigillo{}, err
	}
	return computeSealed(m, slot, BuildChallenge(sn, dateTime, price))
}

// ComputeSigilloFast skips the FID walk, assuming the seal container's
// counter EF is already the currently selected file (e.g. right after ReadCounter
// in the same caller-managed transaction). It exists because the FID
// walk dominates the latency of a single seal on a slow reader.
func ComputeSigilloFast(m cardManager, slot int, sn [8]byte, dateTime [8]byte, price uint32) (Sigillo, error) {
	if err := m.BeginTransaction(slot); err != nil {
		return Sigillo{}, err
	}
	defer m.EndTransaction(slot)
	return computeSealed(m, slot, BuildChallenge(sn, dateTime, price))
}

func computeSealed(m cardManager, slot int, challenge [22]byte) (Sigillo, error) {
	counter, mac, err := m.ComputeSealRaw(slot, challenge)
	if err != nil {
		return Sigillo{}, err
	}
	telemetry.SigilliComputed.WithLabelValues(fmt.Sprint(slot)).Inc()
	return Sigillo{Counter: counter, MAC: mac}, nil
}

// ReadCounter walks to the seal container's counter EF and reads the
// current transaction counter without computing a seal.
func ReadCounter(m cardManager, slot int) (uint32, error) {
	if err := m.BeginTransaction(slot); err != nil {
		return 0, err
	}
	defer m.EndTransaction(slot)

	if err := selectPath(m, slot, fidMasterFile, fidSiaeDomain, fidSealContainer, fidCounter); err != nil {
		return 0, err
	}
	return m.ReadCounterRaw(slot)
}

// ReadBalance walks to the seal container's balance EF and reads the
// residual-tickets balance: a distinct terminal file from the counter
// EF ReadCounter selects, not the same EF read a second way.
func ReadBalance(m cardManager, slot int) (uint32, error) {
	if err := m.BeginTransaction(slot); err != nil {
		return 0, err
	}
	defer m.EndTransaction(slot)

	if err := selectPath(m, slot, fidMasterFile, fidSiaeDomain, fidSealContainer, fidBalance); err != nil {
		return 0, err
	}
	return m.ReadCounterRaw(slot)
}

// SerialNumber returns the card's serial number from the GDO (Global
// Data Object) file, read via READ BINARY at a fixed 8-byte window
// starting at offset 18, not via READ RECORD.
func SerialNumber(m cardManager, slot int) ([8]byte, error) {
	var sn [8]byte
	if err := m.BeginTransaction(slot); err != nil {
		return sn, err
	}
	defer m.EndTransaction(slot)

	if err := selectPath(m, slot, fidMasterFile, fidGDO); err != nil {
		return sn, err
	}
	n, err := m.ReadBinary(slot, 18, sn[:])
	if err != nil {
		return sn, err
	}
	if n != len(sn) {
		return sn, carderr.New("fiscalseal.SerialNumber", carderr.GenericError)
	}
	return sn, nil
}

// ComputeSigilloEx reads the card's own serial number, folds it into
// the COMPUTE SEAL challenge alongside dateTime and price, and
// performs the full walk plus seal in one transaction — for callers
// that don't already know the card's serial number and would
// otherwise need a second transaction just to read it.
func ComputeSigilloEx(m cardManager, slot int, dateTime [8]byte, price uint32) (Sigillo, [8]byte, error) {
	if err := m.BeginTransaction(slot); err != nil {
		return Sigillo{}, [8]byte{}, err
	}
	defer m.EndTransaction(slot)

	sn, err := SerialNumber(m, slot)
	if err != nil {
		return Sigillo{}, sn, err
	}
	if err := selectPath(m, slot, fidMasterFile, fidSiaeDomain, fidSealContainer, fidCounter); err != nil {
		return Sigillo{}, sn, err
	}
	sig, err := computeSealed(m, slot, BuildChallenge(sn, dateTime, price))
	return sig, sn, err
}
