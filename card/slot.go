package card

import (
	"sync"

	"github.com/bit4id/siaep7/reader"
)

// MaxReaders bounds the process-wide slot table: a fixed-size array of
// optional entries, since the reader count is small and known ahead
// of time.
const MaxReaders = 8

// ExchangeBuffer is the chunk size used by ReadBinary. The PC/SC limit
// is 249 bytes but not every reader honours it, so a conservative
// fixed value is used instead.
const ExchangeBuffer = 128

// Slot is one entry in the process-wide slot table: a reader name, its
// native handle, and a transaction-depth counter that must never go
// negative and must return to zero when balanced.
type Slot struct {
	txMu sync.Mutex // guards txDepth and the handle across begin/end

	index      int
	readerName string
	handle     reader.Handle
	connected  bool
	txDepth    int
}

func (s *Slot) empty() bool { return s == nil || !s.connected }
