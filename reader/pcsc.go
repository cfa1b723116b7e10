package reader

import (
	"fmt"
	"sync"
	"time"

	"github.com/ebfe/scard"
)

// PCSC is the concrete Driver backed by github.com/ebfe/scard.
type PCSC struct {
	mu      sync.Mutex
	ctx     *scard.Context
	cards   map[Handle]*scard.Card
	nextIdx int
}

func NewPCSC() *PCSC {
	return &PCSC{cards: make(map[Handle]*scard.Card)}
}

func (p *PCSC) EstablishContext() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ctx != nil {
		return nil
	}
	ctx, err := scard.EstablishContext()
	if err != nil {
		return fmt.Errorf("scard: establish context: %w", err)
	}
	p.ctx = ctx
	return nil
}

func (p *PCSC) ReleaseContext() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ctx == nil {
		return nil
	}
	err := p.ctx.Release()
	p.ctx = nil
	return err
}

func (p *PCSC) ListReaders() ([]string, error) {
	p.mu.Lock()
	ctx := p.ctx
	p.mu.Unlock()
	if ctx == nil {
		return nil, fmt.Errorf("scard: context not established")
	}
	return ctx.ListReaders()
}

type pcscHandle int

func (p *PCSC) Connect(readerName string, mode ShareMode, proto Protocol) (Handle, error) {
	p.mu.Lock()
	ctx := p.ctx
	p.mu.Unlock()
	if ctx == nil {
		return nil, fmt.Errorf("scard: context not established")
	}
	card, err := ctx.Connect(readerName, toScardMode(mode), toScardProto(proto))
	if err != nil {
		return nil, mapConnectError(err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	h := pcscHandle(p.nextIdx)
	p.nextIdx++
	p.cards[h] = card
	return h, nil
}

func (p *PCSC) card(h Handle) (*scard.Card, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	card, ok := p.cards[h]
	if !ok {
		return nil, fmt.Errorf("scard: unknown handle %v", h)
	}
	return card, nil
}

func (p *PCSC) Disconnect(h Handle, d Disposition) error {
	card, err := p.card(h)
	if err != nil {
		return err
	}
	err = card.Disconnect(toScardDisposition(d))
	p.mu.Lock()
	delete(p.cards, h)
	p.mu.Unlock()
	return err
}

func (p *PCSC) Reconnect(h Handle, mode ShareMode, proto Protocol, init Disposition) error {
	card, err := p.card(h)
	if err != nil {
		return err
	}
	_, err = card.Reconnect(toScardMode(mode), toScardProto(proto), toScardDisposition(init))
	return err
}

func (p *PCSC) BeginTransaction(h Handle) error {
	card, err := p.card(h)
	if err != nil {
		return err
	}
	return card.BeginTransaction()
}

func (p *PCSC) EndTransaction(h Handle, d Disposition) error {
	card, err := p.card(h)
	if err != nil {
		return err
	}
	return card.EndTransaction(toScardDisposition(d))
}

func (p *PCSC) Transmit(h Handle, apdu []byte) ([]byte, error) {
	card, err := p.card(h)
	if err != nil {
		return nil, err
	}
	rsp, err := card.Transmit(apdu)
	if err != nil {
		return nil, mapTransmitError(err)
	}
	return rsp, nil
}

func (p *PCSC) GetStatusChange(readers []string, timeout time.Duration) ([]CardState, error) {
	p.mu.Lock()
	ctx := p.ctx
	p.mu.Unlock()
	if ctx == nil {
		return nil, fmt.Errorf("scard: context not established")
	}
	states := make([]scard.ReaderState, len(readers))
	for i, r := range readers {
		states[i] = scard.ReaderState{Reader: r, CurrentState: scard.StateUnaware}
	}
	if err := ctx.GetStatusChange(states, timeout); err != nil {
		return nil, err
	}
	out := make([]CardState, len(states))
	for i, s := range states {
		out[i] = CardState{
			Reader:  s.Reader,
			Present: s.EventState&scard.StatePresent != 0,
			ATR:     s.Atr,
		}
	}
	return out, nil
}

func toScardMode(m ShareMode) scard.ShareMode {
	switch m {
	case ShareExclusive:
		return scard.ShareExclusive
	case ShareDirect:
		return scard.ShareDirect
	default:
		return scard.ShareShared
	}
}

func toScardProto(p Protocol) scard.Protocol {
	var proto scard.Protocol
	if p&ProtocolT0 != 0 {
		proto |= scard.ProtocolT0
	}
	if p&ProtocolT1 != 0 {
		proto |= scard.ProtocolT1
	}
	return proto
}

func toScardDisposition(d Disposition) scard.Disposition {
	switch d {
	case ResetCard:
		return scard.ResetCard
	case UnpowerCard:
		return scard.UnpowerCard
	case EjectCard:
		return scard.EjectCard
	default:
		return scard.LeaveCard
	}
}

// mapConnectError and mapTransmitError translate scard's PC/SC result
// codes into the driver-level sentinel errors that card.Manager knows
// how to react to (reset-and-retry vs. NoCard).
func mapConnectError(err error) error {
	if rv, ok := err.(scard.Error); ok {
		switch rv {
		case scard.ErrNoSmartcard, scard.ErrRemovedCard, scard.ErrUnpoweredCard:
			return ErrCardRemoved{Reason: rv.Error()}
		}
	}
	return err
}

func mapTransmitError(err error) error {
	if rv, ok := err.(scard.Error); ok {
		switch rv {
		case scard.ErrResetCard:
			return ErrCardReset{}
		case scard.ErrRemovedCard, scard.ErrNoSmartcard, scard.ErrUnpoweredCard,
			scard.ErrReaderUnavailable, scard.ErrNotReady:
			return ErrCardRemoved{Reason: rv.Error()}
		}
	}
	return err
}
