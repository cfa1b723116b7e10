package qp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapesEqualsSign(t *testing.T) {
	assert.Equal(t, "3D3D3=3D", encodeToStr(t, "3D3D3="))
}

func TestEscapesNonASCII(t *testing.T) {
	out := Encode([]byte{0xA0})
	assert.Equal(t, "=A0", string(out))
}

func TestPreservesTab(t *testing.T) {
	out := Encode([]byte("a\tb"))
	assert.Equal(t, "a\tb", string(out))
}

func TestEscapesTrailingSpaceBeforeNewline(t *testing.T) {
	out := Encode([]byte("hi \nthere"))
	assert.Equal(t, "hi=20\r\nthere", string(out))
}

func TestSoftWrapAt72Columns(t *testing.T) {
	line := strings.Repeat("a", 80)
	out := Encode([]byte(line))
	parts := strings.Split(string(out), "=\r\n")
	assert.True(t, len(parts) >= 2)
	assert.LessOrEqual(t, len(parts[0]), 72)
}

func TestNormalizesLFtoCRLF(t *testing.T) {
	out := Encode([]byte("a\nb"))
	assert.Equal(t, "a\r\nb", string(out))
}

func TestEscapesReservedPunctuation(t *testing.T) {
	for in, want := range map[byte]string{
		'\'': "=27",
		'(':  "=28",
		')':  "=29",
		'+':  "=2B",
		',':  "=2C",
		'-':  "=2D",
		'.':  "=2E",
		'/':  "=2F",
		':':  "=3A",
		'?':  "=3F",
	} {
		assert.Equal(t, want, string(Encode([]byte{in})), "byte %q", in)
	}
}

func TestDoesNotEscapeOrdinaryPunctuation(t *testing.T) {
	out := Encode([]byte("hi!_@#"))
	assert.Equal(t, "hi!_@#", string(out))
}

func encodeToStr(t *testing.T, s string) string {
	t.Helper()
	return string(Encode([]byte(s)))
}
