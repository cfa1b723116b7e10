// Package reader is the external reader-driver collaborator: enumerate
// PC/SC readers, connect/disconnect a card at a slot, and transmit raw
// APDUs. The card session manager in package card depends only on the
// Driver interface; PCSC is the concrete implementation over
// github.com/ebfe/scard.
package reader

import "time"

// ShareMode mirrors scard.ShareMode without leaking the scard type
// into the card package's API.
type ShareMode int

const (
	ShareExclusive ShareMode = iota
	ShareShared
	ShareDirect
)

// Protocol mirrors scard.Protocol.
type Protocol int

const (
	ProtocolT0 Protocol = 1 << iota
	ProtocolT1
	ProtocolAny = ProtocolT0 | ProtocolT1
)

// Disposition mirrors scard.Disposition, used on Disconnect/EndTransaction/Reconnect.
type Disposition int

const (
	LeaveCard Disposition = iota
	ResetCard
	UnpowerCard
	EjectCard
)

// CardState reports whether a reader currently has a card present.
type CardState struct {
	Reader  string
	Present bool
	ATR     []byte
}

// Handle identifies a connected card within a Driver implementation.
// Concrete drivers may use it to key an internal map to a native handle.
type Handle interface{}

// Driver is the external PC/SC-style collaborator. Every method may
// block on I/O; card.Manager is the only caller and serializes access
// with its own locks.
type Driver interface {
	EstablishContext() error
	ReleaseContext() error

	ListReaders() ([]string, error)

	// Connect opens a card at the named reader in the requested mode
	// and protocol, returning a driver-defined handle.
	Connect(readerName string, mode ShareMode, proto Protocol) (Handle, error)
	Disconnect(h Handle, d Disposition) error

	// Reconnect re-establishes the connection after a "card reset"
	// transport error without losing the reader's slot assignment.
	Reconnect(h Handle, mode ShareMode, proto Protocol, init Disposition) error

	BeginTransaction(h Handle) error
	EndTransaction(h Handle, d Disposition) error

	// Transmit sends a raw APDU and returns the raw response
	// (data || SW1 || SW2).
	Transmit(h Handle, apdu []byte) ([]byte, error)

	// GetStatusChange blocks up to timeout waiting for any of the
	// listed readers' card-presence state to change. timeout==0 means
	// "return current state immediately".
	GetStatusChange(readers []string, timeout time.Duration) ([]CardState, error)
}

// ErrCardReset is returned by Transmit when the driver reports the
// card was reset mid-operation. card.Manager
// treats this as a one-shot reconnect-and-retry condition.
type ErrCardReset struct{}

func (ErrCardReset) Error() string { return "card was reset" }

// ErrCardRemoved is returned when the driver reports the card is gone,
// unavailable, or not ready; card.Manager maps this to carderr.NoCard.
type ErrCardRemoved struct{ Reason string }

func (e ErrCardRemoved) Error() string { return "card removed: " + e.Reason }
