package asn1der

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegerEncoding(t *testing.T) {
	cases := []struct {
		v    int64
		want []byte
	}{
		{127, []byte{0x02, 0x01, 0x7F}},
		{128, []byte{0x02, 0x02, 0x00, 0x80}},
		{-1, []byte{0x02, 0x01, 0xFF}},
		{-128, []byte{0x02, 0x01, 0x80}},
		{0, []byte{0x02, 0x01, 0x00}},
	}
	for _, c := range cases {
		got := Integer(c.v).Bytes()
		assert.Equal(t, c.want, got, "Integer(%d)", c.v)
	}
}

func TestOIDEncoding(t *testing.T) {
	n, err := TryOID("1.2.840.113549.1.1.1")
	require.NoError(t, err)
	want := []byte{0x06, 0x09, 0x2A, 0x86, 0x48, 0x86, 0xF7, 0x0D, 0x01, 0x01, 0x01}
	assert.Equal(t, want, n.Bytes())
}

func TestOIDRejectsSingleArc(t *testing.T) {
	_, err := TryOID("42")
	assert.Error(t, err)
}

func TestUTCTimeEncoding(t *testing.T) {
	n, err := UTCTime(2024, 1, 2, 3, 4, 5)
	require.NoError(t, err)
	want := []byte{0x17, 0x0D, '2', '4', '0', '1', '0', '2', '0', '3', '0', '4', '0', '5', 'Z'}
	assert.Equal(t, want, n.Bytes())
}

func TestUTCTimeRejectsBadMonth(t *testing.T) {
	_, err := UTCTime(2024, 13, 1, 0, 0, 0)
	assert.Error(t, err)
}

func TestSequenceEncodedLenMatchesEmit(t *testing.T) {
	n := Sequence(Integer(1), OctetString([]byte("hi")), Null())
	buf := make([]byte, n.EncodedLen())
	written := n.Emit(buf)
	assert.Equal(t, len(buf), written)

	// re-parse the tag/length header we just wrote and confirm it
	// declares exactly the content length that follows.
	tlv, next, err := ParseTLV(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, len(buf), next)
	assert.Equal(t, len(buf)-tlv.ValueOffset, tlv.ValueLen)
}

func TestImplicitTagKeepsInnerConstructedness(t *testing.T) {
	inner := Sequence(Integer(1))
	tagged := Implicit(ContextSpecific, 0, inner)
	buf := tagged.Bytes()
	// class=context(2)<<6=0x80, constructed bit set because inner (SEQUENCE) is constructed, tag 0
	assert.Equal(t, byte(0xA0), buf[0])
}

func TestExplicitTagWrapsFullEncoding(t *testing.T) {
	inner := Integer(5)
	tagged := Explicit(ContextSpecific, 0, inner)
	buf := tagged.Bytes()
	assert.Equal(t, byte(0xA0), buf[0]) // constructed, context, tag 0
	assert.True(t, bytes.Contains(buf, inner.Bytes()))
}

func TestLongFormTagNumber(t *testing.T) {
	n := &Node{Kind: KindTagged, TagClass: ContextSpecific, TagNum: 40, Implicit: true, Inner: OctetString([]byte{1, 2})}
	buf := n.Bytes()
	tlv, _, err := ParseTLV(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(40), tlv.Tag)
}

func TestLongFormLength(t *testing.T) {
	big := bytes.Repeat([]byte{0xAB}, 200)
	n := OctetString(big)
	buf := n.Bytes()
	assert.Equal(t, byte(0x81), buf[1]) // one length-of-length octet
	assert.Equal(t, byte(200), buf[2])
	tlv, next, err := ParseTLV(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, len(buf), next)
	assert.Equal(t, big, tlv.Value(buf))
}
