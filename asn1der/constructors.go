package asn1der

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// Boolean builds a DER BOOLEAN, encoded per X.690 as a single 0x00 or 0xFF octet.
func Boolean(v bool) *Node {
	b := byte(0x00)
	if v {
		b = 0xFF
	}
	return &Node{Kind: KindBoolean, content: []byte{b}}
}

// Integer builds a DER INTEGER from a signed value, using the minimal
// two's-complement byte count required to represent it unambiguously:
// the top bit of the first byte must match the sign, and no leading
// byte may be redundant.
func Integer(v int64) *Node {
	return IntegerBig(big.NewInt(v))
}

// IntegerBig is Integer for values too large for int64.
func IntegerBig(v *big.Int) *Node {
	return &Node{Kind: KindInteger, content: minimalTwosComplement(v)}
}

// IntegerRaw builds a DER INTEGER from bytes already in minimal
// two's-complement form (e.g. lifted verbatim from a parsed certificate).
func IntegerRaw(twosComplement []byte) *Node {
	b := twosComplement
	if len(b) == 0 {
		b = []byte{0}
	}
	return &Node{Kind: KindInteger, content: append([]byte(nil), b...)}
}

func minimalTwosComplement(v *big.Int) []byte {
	if v.Sign() == 0 {
		return []byte{0}
	}
	nBytes := 1
	for {
		bits := uint(8*nBytes - 1)
		upper := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), bits), big.NewInt(1))
		lower := new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), bits))
		if v.Cmp(lower) >= 0 && v.Cmp(upper) <= 0 {
			break
		}
		nBytes++
	}
	var twos *big.Int
	if v.Sign() < 0 {
		mod := new(big.Int).Lsh(big.NewInt(1), uint(8*nBytes))
		twos = new(big.Int).Add(mod, v)
	} else {
		twos = v
	}
	b := twos.Bytes()
	for len(b) < nBytes {
		b = append([]byte{0}, b...)
	}
	return b
}

// OctetString builds a DER OCTET STRING.
func OctetString(data []byte) *Node {
	return &Node{Kind: KindOctetString, content: append([]byte(nil), data...)}
}

// Null builds a DER NULL.
func Null() *Node {
	return &Node{Kind: KindNull}
}

// OID builds a DER OBJECT IDENTIFIER from a dotted-decimal string such
// as "1.2.840.113549.1.1.1". The first two arcs are fused into one
// value (40*arc0+arc1); that value and the rest of the arcs use
// base-128 with the continuation bit set on every byte but the last
// of each arc.
func OID(dotted string) *Node {
	n, err := oidBytes(dotted)
	if err != nil {
		panic("asn1der: " + err.Error())
	}
	return &Node{Kind: KindOID, content: n}
}

// TryOID is OID without the panic, for callers building OIDs from
// untrusted or parsed input.
func TryOID(dotted string) (*Node, error) {
	b, err := oidBytes(dotted)
	if err != nil {
		return nil, err
	}
	return &Node{Kind: KindOID, content: b}, nil
}

func oidBytes(dotted string) ([]byte, error) {
	parts := strings.Split(dotted, ".")
	if len(parts) < 2 {
		return nil, fmt.Errorf("oid %q needs at least two arcs", dotted)
	}
	arcs := make([]uint64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("oid %q: bad arc %q: %w", dotted, p, err)
		}
		arcs[i] = v
	}
	if arcs[0] > 2 || (arcs[0] < 2 && arcs[1] > 39) {
		return nil, fmt.Errorf("oid %q: arc values out of range", dotted)
	}
	out := encodeBase128(arcs[0]*40 + arcs[1])
	for _, a := range arcs[2:] {
		out = append(out, encodeBase128(a)...)
	}
	return out, nil
}

func encodeBase128(v uint64) []byte {
	if v == 0 {
		return []byte{0}
	}
	var groups []byte
	for v > 0 {
		groups = append(groups, byte(v&0x7F))
		v >>= 7
	}
	out := make([]byte, len(groups))
	for i := range groups {
		b := groups[len(groups)-1-i]
		if i != len(groups)-1 {
			b |= 0x80
		}
		out[i] = b
	}
	return out
}

// UTCTime builds a DER UTCTime from calendar fields, producing the
// fixed 13-byte "YYMMDDhhmmssZ" form. It validates its inputs and
// refuses out-of-range fields outright rather than wrapping them.
func UTCTime(year, month, day, hour, min, sec int) (*Node, error) {
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("asn1der: month %d out of range", month)
	}
	if day < 1 || day > 31 {
		return nil, fmt.Errorf("asn1der: day %d out of range", day)
	}
	if hour < 0 || hour > 23 || min < 0 || min > 59 || sec < 0 || sec > 59 {
		return nil, fmt.Errorf("asn1der: time %02d:%02d:%02d out of range", hour, min, sec)
	}
	yy := year % 100
	if yy < 0 {
		yy += 100
	}
	content := fmt.Sprintf("%02d%02d%02d%02d%02d%02dZ", yy, month, day, hour, min, sec)
	return &Node{Kind: KindUTCTime, content: []byte(content)}, nil
}

// Sequence builds a DER SEQUENCE from an ordered list of children.
func Sequence(children ...*Node) *Node {
	return &Node{Kind: KindSequence, Children: children}
}

// Set builds a DER SET. Callers are responsible for DER's canonical
// ordering of SET OF elements by encoding when that matters; the
// fixed-shape SETs this module builds (SignedAttrs, RDNs) don't need it.
func Set(children ...*Node) *Node {
	return &Node{Kind: KindSet, Children: children}
}

// Implicit wraps inner in an IMPLICIT [class tag] that replaces
// inner's own header, keeping inner's constructed-ness and content.
func Implicit(class Class, tag uint32, inner *Node) *Node {
	return &Node{Kind: KindTagged, TagClass: class, TagNum: tag, Implicit: true, Inner: inner}
}

// Explicit wraps inner's full encoding in an EXPLICIT [class tag],
// which is always constructed.
func Explicit(class Class, tag uint32, inner *Node) *Node {
	return &Node{Kind: KindTagged, TagClass: class, TagNum: tag, Implicit: false, Inner: inner}
}

// Raw wraps an already fully-encoded TLV (e.g. lifted verbatim from a
// parsed certificate by package asn1der's own parser) so it can sit
// unchanged inside a larger tree built with the constructors above.
func Raw(fullyEncoded []byte) *Node {
	return &Node{Kind: KindRaw, content: append([]byte(nil), fullyEncoded...)}
}
