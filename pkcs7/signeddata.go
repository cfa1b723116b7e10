package pkcs7

import (
	"fmt"
	"sort"
	"time"

	"github.com/bit4id/siaep7/asn1der"
	"github.com/bit4id/siaep7/cardhash"
)

// Signer produces a raw signature over an already PKCS#1-v1.5-padded,
// KeyModulusBytes-sized block. package card's Manager.Sign satisfies
// this via CardSigner (cardsigner.go); tests supply a fixed-output stub.
type Signer interface {
	Sign(padded []byte) ([]byte, error)
}

// SignFunc adapts a plain function to Signer.
type SignFunc func(padded []byte) ([]byte, error)

func (f SignFunc) Sign(padded []byte) ([]byte, error) { return f(padded) }

// Params bundles the inputs the SignedData builder needs: the content
// being signed, the signer's certificate (for IssuerAndSerialNumber
// and the optional embedded certificate), and the card-backed signer.
type Params struct {
	Content     []byte
	Certificate []byte // DER-encoded X.509 certificate
	Signer      Signer
	Hasher      cardhash.Hasher // nil uses cardhash.Std
	SigningTime time.Time
	// EmbedCertificate includes Certificate in the SignedData's
	// optional certificates set, which S/MIME clients expect so they
	// can verify without a separate certificate lookup.
	EmbedCertificate bool
}

// Sign builds a complete opaque PKCS#7 SignedData ContentInfo:
// content is embedded (not detached), the message digest and signing
// time ride as authenticated attributes, and the actual RSA operation
// happens on the card via Signer.
func Sign(p Params) ([]byte, error) {
	hasher := p.Hasher
	if hasher == nil {
		hasher = cardhash.Std
	}
	if p.Signer == nil {
		return nil, fmt.Errorf("pkcs7: Signer is required")
	}

	issuerSerial, err := asn1der.ExtractIssuerSerial(p.Certificate)
	if err != nil {
		return nil, fmt.Errorf("pkcs7: reading certificate: %w", err)
	}

	contentDigest := hasher.SHA1(p.Content)

	when := p.SigningTime
	if when.IsZero() {
		when = time.Now().UTC()
	}
	signingTime, err := asn1der.UTCTime(when.Year(), int(when.Month()), when.Day(), when.Hour(), when.Minute(), when.Second())
	if err != nil {
		return nil, fmt.Errorf("pkcs7: signing time: %w", err)
	}

	attrs := []*asn1der.Node{
		asn1der.Sequence(asn1der.OID(oidContentType), asn1der.Set(asn1der.OID(oidData))),
		asn1der.Sequence(asn1der.OID(oidSigningTime), asn1der.Set(signingTime)),
		asn1der.Sequence(asn1der.OID(oidMessageDigest), asn1der.Set(asn1der.OctetString(contentDigest[:]))),
		asn1der.Sequence(asn1der.OID(oidSMIMECapabilities), asn1der.Set(
			asn1der.Sequence(
				asn1der.Sequence(asn1der.OID(oidDESEDE3CBC)),
				asn1der.Sequence(asn1der.OID(oidDESCBC)),
				asn1der.Sequence(asn1der.OID(oidSHA1WithRSA)),
			),
		)),
	}
	attrsSet := sortedSet(attrs)

	attrsDigest := hasher.SHA1(attrsSet.Bytes())
	padded, err := PadSHA1(attrsDigest)
	if err != nil {
		return nil, err
	}
	signature, err := p.Signer.Sign(padded)
	if err != nil {
		return nil, fmt.Errorf("pkcs7: on-card signature: %w", err)
	}
	if len(signature) != KeyModulusBytes {
		return nil, fmt.Errorf("pkcs7: signature length %d, want %d", len(signature), KeyModulusBytes)
	}

	digestAlg := algorithmIdentifier(oidSHA1)
	sigAlg := algorithmIdentifier(oidRSAEncryption)

	issuerAndSerial := asn1der.Sequence(
		asn1der.Raw(issuerSerial.IssuerRaw),
		asn1der.Raw(issuerSerial.SerialRaw),
	)

	signerInfo := asn1der.Sequence(
		asn1der.Integer(1),
		issuerAndSerial,
		digestAlg,
		asn1der.Implicit(asn1der.ContextSpecific, 0, attrsSet),
		sigAlg,
		asn1der.OctetString(signature),
	)

	contentInfo := asn1der.Sequence(
		asn1der.OID(oidData),
		asn1der.Explicit(asn1der.ContextSpecific, 0, asn1der.OctetString(p.Content)),
	)

	signedDataChildren := []*asn1der.Node{
		asn1der.Integer(1),
		asn1der.Set(digestAlg),
		contentInfo,
	}
	if p.EmbedCertificate {
		signedDataChildren = append(signedDataChildren,
			asn1der.Implicit(asn1der.ContextSpecific, 0, asn1der.Set(asn1der.Raw(p.Certificate))))
	}
	signedDataChildren = append(signedDataChildren, asn1der.Set(signerInfo))

	signedData := asn1der.Sequence(signedDataChildren...)

	top := asn1der.Sequence(
		asn1der.OID(oidSignedData),
		asn1der.Explicit(asn1der.ContextSpecific, 0, signedData),
	)
	return top.Bytes(), nil
}

func algorithmIdentifier(oid string) *asn1der.Node {
	return asn1der.Sequence(asn1der.OID(oid), asn1der.Null())
}

// sortedSet orders SET OF elements by their DER encoding, the
// canonical ordering rule X.690 requires for SET OF and that this
// module's Set constructor leaves to its callers.
func sortedSet(nodes []*asn1der.Node) *asn1der.Node {
	type pair struct {
		node *asn1der.Node
		enc  []byte
	}
	pairs := make([]pair, len(nodes))
	for i, n := range nodes {
		pairs[i] = pair{node: n, enc: n.Bytes()}
	}
	sort.Slice(pairs, func(i, j int) bool {
		return compareBytes(pairs[i].enc, pairs[j].enc) < 0
	})
	out := make([]*asn1der.Node, len(pairs))
	for i, p := range pairs {
		out[i] = p.node
	}
	return asn1der.Set(out...)
}

func compareBytes(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return int(a[i]) - int(b[i])
		}
	}
	return len(a) - len(b)
}
