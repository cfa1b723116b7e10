// Package card implements the transactional APDU session layer:
// per-slot session handles, reference-counted transactions, reset
// recovery, and a fixed command catalogue. State is a process-wide
// context handle plus per-session state guarded by a mutex, login
// (VERIFY PIN here) folded through a small state machine.
package card

import (
	"errors"
	"strconv"
	"time"

	"github.com/bit4id/siaep7/carderr"
	"github.com/bit4id/siaep7/internal/closeonce"
	"github.com/bit4id/siaep7/internal/telemetry"
	"github.com/bit4id/siaep7/reader"
)

// Manager holds the process-wide state: a context handle to the
// underlying resource manager, the slot table, and the default-slot
// pointer set on the first successful connect.
type Manager struct {
	mu             chan struct{} // 1-buffered channel used as a process-wide lock
	driver         reader.Driver
	ctxEstablished bool
	slots          [MaxReaders]*Slot
	defaultSlot    *int
	closed         closeonce.Closed // guards Close against a defer plus an explicit call racing
}

func NewManager(d reader.Driver) *Manager {
	m := &Manager{driver: d, mu: make(chan struct{}, 1)}
	m.mu <- struct{}{}
	return m
}

func (m *Manager) lock()   { <-m.mu }
func (m *Manager) unlock() { m.mu <- struct{}{} }

func slotLabel(slot int) string { return strconv.Itoa(slot) }

// Initialize brings slot from Empty to Connected: acquires the driver
// context on first use, enumerates readers, and connects in shared
// mode requesting T=1.
func (m *Manager) Initialize(slot int) error {
	if slot < 0 || slot >= MaxReaders {
		return carderr.New("card.Initialize", carderr.GenericError)
	}
	m.lock()
	defer m.unlock()

	if !m.slots[slot].empty() {
		return carderr.New("card.Initialize", carderr.AlreadyInitialized)
	}
	if !m.ctxEstablished {
		if err := m.driver.EstablishContext(); err != nil {
			return carderr.Wrap("card.Initialize", carderr.ContextError, err)
		}
		m.ctxEstablished = true
	}
	readers, err := m.driver.ListReaders()
	if err != nil {
		return carderr.Wrap("card.Initialize", carderr.ContextError, err)
	}
	if slot >= len(readers) {
		return carderr.New("card.Initialize", carderr.NoCard)
	}
	name := readers[slot]
	h, err := m.driver.Connect(name, reader.ShareShared, reader.ProtocolT1)
	if err != nil {
		if _, ok := err.(reader.ErrCardRemoved); ok {
			return carderr.New("card.Initialize", carderr.NoCard)
		}
		return carderr.Wrap("card.Initialize", carderr.ContextError, err)
	}
	m.slots[slot] = &Slot{index: slot, readerName: name, handle: h, connected: true}
	if m.defaultSlot == nil {
		d := slot
		m.defaultSlot = &d
	}
	telemetry.Log().Info().Int("slot", slot).Str("reader", name).Msg("card initialized")
	return nil
}

// Finalize disconnects (resetting the card) and zeroes the slot entry.
// When the last slot closes, the driver context is released. Any
// outstanding transaction is balanced first so the reader is not left
// holding an exclusive lock.
func (m *Manager) Finalize(slot int) error {
	if slot < 0 || slot >= MaxReaders {
		return carderr.New("card.Finalize", carderr.GenericError)
	}
	m.lock()
	defer m.unlock()

	s := m.slots[slot]
	if s.empty() {
		return carderr.New("card.Finalize", carderr.NotInitialized)
	}
	s.txMu.Lock()
	for s.txDepth > 0 {
		m.driver.EndTransaction(s.handle, reader.LeaveCard)
		s.txDepth--
	}
	s.txMu.Unlock()

	err := m.driver.Disconnect(s.handle, reader.ResetCard)
	m.slots[slot] = nil
	if m.defaultSlot != nil && *m.defaultSlot == slot {
		m.defaultSlot = nil
	}
	if m.allSlotsEmpty() {
		m.driver.ReleaseContext()
		m.ctxEstablished = false
	}
	telemetry.Log().Info().Int("slot", slot).Msg("card finalized")
	if err != nil {
		return carderr.Wrap("card.Finalize", carderr.GenericError, err)
	}
	return nil
}

// Close finalizes every connected slot and releases the driver
// context. It is safe to call more than once (e.g. from a defer and
// from an explicit shutdown path): only the first call does any work.
func (m *Manager) Close() error {
	return m.closed.Close(func() error {
		var firstErr error
		for slot := range m.slots {
			m.lock()
			empty := m.slots[slot].empty()
			m.unlock()
			if empty {
				continue
			}
			if err := m.Finalize(slot); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	})
}

func (m *Manager) allSlotsEmpty() bool {
	for _, s := range m.slots {
		if !s.empty() {
			return false
		}
	}
	return true
}

// IsCardIn queries reader n's presence without mutating session state.
func (m *Manager) IsCardIn(n int) (bool, error) {
	m.lock()
	establish := !m.ctxEstablished
	m.unlock()
	if establish {
		if err := m.driver.EstablishContext(); err != nil {
			return false, carderr.Wrap("card.IsCardIn", carderr.ContextError, err)
		}
		m.lock()
		m.ctxEstablished = true
		m.unlock()
	}
	readers, err := m.driver.ListReaders()
	if err != nil {
		return false, carderr.Wrap("card.IsCardIn", carderr.ContextError, err)
	}
	if n >= len(readers) {
		return false, carderr.New("card.IsCardIn", carderr.NoCard)
	}
	states, err := m.driver.GetStatusChange([]string{readers[n]}, 0)
	if err != nil {
		return false, carderr.Wrap("card.IsCardIn", carderr.GenericError, err)
	}
	return len(states) > 0 && states[0].Present, nil
}

func (m *Manager) connectedSlot(slot int) (*Slot, error) {
	if slot < 0 || slot >= MaxReaders {
		return nil, carderr.New("card", carderr.GenericError)
	}
	m.lock()
	s := m.slots[slot]
	m.unlock()
	if s.empty() {
		return nil, carderr.New("card", carderr.NotInitialized)
	}
	return s, nil
}

// BeginTransaction / EndTransaction implement nested locking: the
// underlying exclusive-access primitive is acquired only on the 0->1
// transition and released only on the 1->0 transition. An unbalanced
// EndTransaction is tolerated; the counter saturates at 0.
func (m *Manager) BeginTransaction(slot int) error {
	s, err := m.connectedSlot(slot)
	if err != nil {
		return err
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()
	if s.txDepth == 0 {
		if err := m.driver.BeginTransaction(s.handle); err != nil {
			return carderr.Wrap("card.BeginTransaction", carderr.GenericError, err)
		}
	}
	s.txDepth++
	return nil
}

func (m *Manager) EndTransaction(slot int) error {
	s, err := m.connectedSlot(slot)
	if err != nil {
		return err
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()
	if s.txDepth == 0 {
		return nil
	}
	s.txDepth--
	if s.txDepth == 0 {
		if err := m.driver.EndTransaction(s.handle, reader.LeaveCard); err != nil {
			return carderr.Wrap("card.EndTransaction", carderr.GenericError, err)
		}
	}
	return nil
}

// sendAPDU is the single transport primitive. A "card was reset"
// transport error triggers exactly one transparent
// reconnect-and-retry, preserving the transaction depth held at the
// time of the error.
func (m *Manager) sendAPDU(slot int, a apdu) ([]byte, SW, error) {
	s, err := m.connectedSlot(slot)
	if err != nil {
		return nil, 0, err
	}
	telemetry.APDUsSent.WithLabelValues(slotLabel(slot), strconv.Itoa(int(a.hdr[1]))).Inc()
	start := time.Now()
	data, sw, err := m.transmitOnce(s, a)
	if isCardReset(err) {
		telemetry.APDURetries.WithLabelValues(slotLabel(slot)).Inc()
		if rerr := m.reconnect(s); rerr != nil {
			s.txMu.Lock()
			s.connected = false
			s.txMu.Unlock()
			return nil, 0, carderr.New("card.sendAPDU", carderr.NoCard)
		}
		data, sw, err = m.transmitOnce(s, a)
		if isCardReset(err) {
			// more than one consecutive reset is a hard failure
			return nil, 0, carderr.New("card.sendAPDU", carderr.NoCard)
		}
	}
	telemetry.APDULatency.Observe(time.Since(start).Seconds())
	if err != nil {
		if _, ok := err.(reader.ErrCardRemoved); ok {
			s.txMu.Lock()
			s.connected = false
			s.txMu.Unlock()
			return nil, 0, carderr.New("card.sendAPDU", carderr.NoCard)
		}
		return nil, 0, carderr.Wrap("card.sendAPDU", carderr.GenericError, err)
	}
	return data, sw, nil
}

func isCardReset(err error) bool {
	var reset reader.ErrCardReset
	return errors.As(err, &reset)
}

func (m *Manager) transmitOnce(s *Slot, a apdu) ([]byte, SW, error) {
	resp, err := m.driver.Transmit(s.handle, a.bytes())
	if err != nil {
		return nil, 0, err
	}
	data, sw, ok := swFromResponse(resp)
	if !ok {
		return nil, 0, carderr.New("card.sendAPDU", carderr.GenericError)
	}
	return data, sw, nil
}

// reconnect re-establishes the connection after a card reset,
// re-acquiring the exclusive lock if a transaction was outstanding, so
// the retried APDU sees the same locking context as the original.
func (m *Manager) reconnect(s *Slot) error {
	s.txMu.Lock()
	depth := s.txDepth
	s.txMu.Unlock()
	if err := m.driver.Reconnect(s.handle, reader.ShareShared, reader.ProtocolT1, reader.LeaveCard); err != nil {
		return err
	}
	if depth > 0 {
		if err := m.driver.BeginTransaction(s.handle); err != nil {
			return err
		}
	}
	return nil
}
