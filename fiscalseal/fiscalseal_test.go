package fiscalseal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bit4id/siaep7/card"
)

type fakeCard struct {
	selected      []card.FID
	txDepth       int
	counter       uint32
	mac           [8]byte
	binaryOut     map[card.FID][]byte
	lastChallenge [22]byte
}

func (f *fakeCard) BeginTransaction(slot int) error { f.txDepth++; return nil }
func (f *fakeCard) EndTransaction(slot int) error   { f.txDepth--; return nil }
func (f *fakeCard) Select(slot int, fid card.FID) error {
	f.selected = append(f.selected, fid)
	return nil
}
func (f *fakeCard) ReadBinary(slot int, offset int, buf []byte) (int, error) {
	last := f.selected[len(f.selected)-1]
	data := f.binaryOut[last]
	return copy(buf, data[offset:]), nil
}
func (f *fakeCard) ReadCounterRaw(slot int) (uint32, error) { return f.counter, nil }
func (f *fakeCard) ComputeSealRaw(slot int, challenge [22]byte) (uint32, [8]byte, error) {
	f.lastChallenge = challenge
	return f.counter, f.mac, nil
}

func TestBuildChallengeLayout(t *testing.T) {
	sn := [8]byte{1, 2, 3, 4, 5, 6, 7, 8}
	dt := [8]byte{0x24, 1, 1, 12, 0, 0, 0, 0}
	got := BuildChallenge(sn, dt, 1250)

	want := [22]byte{}
	want[0], want[1] = 0x00, 0x01
	copy(want[2:10], sn[:])
	copy(want[10:18], dt[:])
	want[18], want[19], want[20], want[21] = 0, 0, 0x04, 0xE2 // 1250 big-endian
	assert.Equal(t, want, got)
}

func TestComputeSigilloWalksFIDsInOrder(t *testing.T) {
	fc := &fakeCard{counter: 42, mac: [8]byte{1, 2, 3, 4, 5, 6, 7, 8}}
	sn := [8]byte{9, 9, 9, 9, 9, 9, 9, 9}
	dt := [8]byte{1, 2, 3, 4, 5, 6, 7, 8}
	sig, err := ComputeSigillo(fc, 0, sn, dt, 500)
	require.NoError(t, err)
	assert.Equal(t, uint32(42), sig.Counter)
	assert.Equal(t, [8]byte{1, 2, 3, 4, 5, 6, 7, 8}, sig.MAC)
	assert.Equal(t, []card.FID{card.FIDMasterFile, card.FIDSiaeDomain, card.FIDSealContainer, card.FIDCounter}, fc.selected)
	assert.Equal(t, 0, fc.txDepth, "transaction must be balanced")
	assert.Equal(t, BuildChallenge(sn, dt, 500), fc.lastChallenge)
}

func TestReadCounterWalksToCounterEF(t *testing.T) {
	fc := &fakeCard{counter: 42}
	got, err := ReadCounter(fc, 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(42), got)
	assert.Equal(t, []card.FID{card.FIDMasterFile, card.FIDSiaeDomain, card.FIDSealContainer, card.FIDCounter}, fc.selected)
	assert.Equal(t, 0, fc.txDepth, "transaction must be balanced")
}

func TestReadBalanceWalksToBalanceEF(t *testing.T) {
	fc := &fakeCard{counter: 17}
	got, err := ReadBalance(fc, 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(17), got)
	assert.Equal(t, []card.FID{card.FIDMasterFile, card.FIDSiaeDomain, card.FIDSealContainer, card.FIDBalance}, fc.selected)
	assert.Equal(t, 0, fc.txDepth, "transaction must be balanced")
}

func TestComputeSigilloFastSkipsWalk(t *testing.T) {
	fc := &fakeCard{counter: 7}
	sn := [8]byte{1, 1, 1, 1, 1, 1, 1, 1}
	dt := [8]byte{2, 2, 2, 2, 2, 2, 2, 2}
	_, err := ComputeSigilloFast(fc, 0, sn, dt, 100)
	require.NoError(t, err)
	assert.Empty(t, fc.selected)
	assert.Equal(t, BuildChallenge(sn, dt, 100), fc.lastChallenge)
}

func TestComputeSigilloExFoldsSerialNumberIntoChallenge(t *testing.T) {
	gdo := make([]byte, 32)
	sn := [8]byte{0xDE, 0xAD, 0xBE, 0xEF, 1, 2, 3, 4}
	copy(gdo[18:], sn[:])
	fc := &fakeCard{counter: 3, mac: [8]byte{9, 9, 9, 9, 9, 9, 9, 9}, binaryOut: map[card.FID][]byte{card.FIDGDO: gdo}}

	dt := [8]byte{7, 7, 7, 7, 7, 7, 7, 7}
	sig, gotSN, err := ComputeSigilloEx(fc, 0, dt, 999)
	require.NoError(t, err)
	assert.Equal(t, sn, gotSN)
	assert.Equal(t, uint32(3), sig.Counter)
	assert.Equal(t, BuildChallenge(sn, dt, 999), fc.lastChallenge)
	assert.Equal(t, 0, fc.txDepth, "transaction must be balanced")
}

func TestSerialNumberReadsFixedWindow(t *testing.T) {
	gdo := make([]byte, 32)
	copy(gdo[18:], []byte{0xDE, 0xAD, 0xBE, 0xEF, 1, 2, 3, 4})
	fc := &fakeCard{binaryOut: map[card.FID][]byte{card.FIDGDO: gdo}}
	sn, err := SerialNumber(fc, 0)
	require.NoError(t, err)
	assert.Equal(t, [8]byte{0xDE, 0xAD, 0xBE, 0xEF, 1, 2, 3, 4}, sn)
	assert.Equal(t, []card.FID{card.FIDMasterFile, card.FIDGDO}, fc.selected)
}

func TestSigilloString(t *testing.T) {
	s := Sigillo{Counter: 5, MAC: [8]byte{0xAB, 0xCD, 0, 0, 0, 0, 0, 0}}
	assert.Equal(t, "0000000005 ABCD0000000000", s.String())
}
