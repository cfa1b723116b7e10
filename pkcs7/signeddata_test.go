package pkcs7

import (
	"crypto/sha1"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bit4id/siaep7/asn1der"
)

func fakeCertificate(t *testing.T, serial int64) []byte {
	t.Helper()
	issuer := asn1der.Sequence(asn1der.Set(asn1der.Sequence(asn1der.OID("2.5.4.3"), asn1der.OctetString([]byte("Test CA")))))
	sigAlg := asn1der.Sequence(asn1der.OID(oidRSAEncryption), asn1der.Null())
	tbs := asn1der.Sequence(asn1der.Integer(serial), sigAlg, issuer, issuer)
	cert := asn1der.Sequence(tbs, sigAlg, asn1der.OctetString([]byte("sig")))
	return cert.Bytes()
}

func TestSignEmbedsMessageDigest(t *testing.T) {
	cert := fakeCertificate(t, 42)
	content := []byte("Hello")
	wantDigest := sha1.Sum(content)

	fixedSig := make([]byte, KeyModulusBytes)
	for i := range fixedSig {
		fixedSig[i] = byte(i)
	}
	signer := SignFunc(func(padded []byte) ([]byte, error) {
		require.Len(t, padded, KeyModulusBytes)
		return fixedSig, nil
	})

	out, err := Sign(Params{
		Content:          content,
		Certificate:      cert,
		Signer:           signer,
		SigningTime:      time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		EmbedCertificate: true,
	})
	require.NoError(t, err)
	require.NotEmpty(t, out)

	// Walk ContentInfo -> [0] EXPLICIT SignedData -> signerInfos -> SignerInfo.
	top, _, err := asn1der.ParseTLV(out, 0)
	require.NoError(t, err)
	topKids, err := asn1der.Children(out, top)
	require.NoError(t, err)
	require.Len(t, topKids, 2)

	explicit0 := topKids[1]
	sdWrapper, err := asn1der.Children(out, explicit0)
	require.NoError(t, err)
	require.Len(t, sdWrapper, 1)
	signedData := sdWrapper[0]

	sdFields, err := asn1der.Children(out, signedData)
	require.NoError(t, err)
	// version, digestAlgorithms, contentInfo, certificates([0]), signerInfos
	require.Len(t, sdFields, 5)
	signerInfos, err := asn1der.Children(out, sdFields[4])
	require.NoError(t, err)
	require.Len(t, signerInfos, 1)

	siFields, err := asn1der.Children(out, signerInfos[0])
	require.NoError(t, err)
	// version, issuerAndSerial, digestAlg, [0] attrs, sigAlg, encryptedDigest
	require.Len(t, siFields, 6)

	encryptedDigest := siFields[5]
	assert.Equal(t, fixedSig, encryptedDigest.Value(out))

	attrsWrapper := siFields[3]
	attrChildren, err := asn1der.Children(out, attrsWrapper)
	require.NoError(t, err)

	found := false
	for _, attr := range attrChildren {
		attrFields, err := asn1der.Children(out, attr)
		require.NoError(t, err)
		require.Len(t, attrFields, 2)
		oidNode := attrFields[0]
		if string(oidNode.Value(out)) == string(asn1der.OID(oidMessageDigest).Bytes()[2:]) {
			valueSet, err := asn1der.Children(out, attrFields[1])
			require.NoError(t, err)
			require.Len(t, valueSet, 1)
			assert.Equal(t, wantDigest[:], valueSet[0].Value(out))
			found = true
		}
	}
	assert.True(t, found, "messageDigest attribute not found")
}

func TestSignSMIMECapabilitiesAttributeShape(t *testing.T) {
	cert := fakeCertificate(t, 7)
	fixedSig := make([]byte, KeyModulusBytes)
	signer := SignFunc(func(padded []byte) ([]byte, error) { return fixedSig, nil })

	out, err := Sign(Params{
		Content:          []byte("Hello"),
		Certificate:      cert,
		Signer:           signer,
		SigningTime:      time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		EmbedCertificate: true,
	})
	require.NoError(t, err)

	top, _, err := asn1der.ParseTLV(out, 0)
	require.NoError(t, err)
	topKids, err := asn1der.Children(out, top)
	require.NoError(t, err)
	sdWrapper, err := asn1der.Children(out, topKids[1])
	require.NoError(t, err)
	sdFields, err := asn1der.Children(out, sdWrapper[0])
	require.NoError(t, err)
	signerInfos, err := asn1der.Children(out, sdFields[4])
	require.NoError(t, err)
	siFields, err := asn1der.Children(out, signerInfos[0])
	require.NoError(t, err)
	attrChildren, err := asn1der.Children(out, siFields[3])
	require.NoError(t, err)

	wantOID := string(asn1der.OID(oidSMIMECapabilities).Bytes()[2:])
	var capsValue asn1der.TLV
	found := false
	for _, attr := range attrChildren {
		attrFields, err := asn1der.Children(out, attr)
		require.NoError(t, err)
		if string(attrFields[0].Value(out)) == wantOID {
			valueSet, err := asn1der.Children(out, attrFields[1])
			require.NoError(t, err)
			require.Len(t, valueSet, 1)
			capsValue = valueSet[0]
			found = true
		}
	}
	require.True(t, found, "sMIMECapabilities attribute not found")

	// capsValue is the single SEQUENCE wrapping the three capability SEQUENCEs.
	caps, err := asn1der.Children(out, capsValue)
	require.NoError(t, err)
	require.Len(t, caps, 3)

	wantOIDs := []string{oidDESEDE3CBC, oidDESCBC, oidSHA1WithRSA}
	for i, capNode := range caps {
		fields, err := asn1der.Children(out, capNode)
		require.NoError(t, err)
		require.Len(t, fields, 1)
		want := string(asn1der.OID(wantOIDs[i]).Bytes()[2:])
		assert.Equal(t, want, string(fields[0].Value(out)))
	}
}

func TestSignRejectsWrongSignatureLength(t *testing.T) {
	cert := fakeCertificate(t, 1)
	signer := SignFunc(func(padded []byte) ([]byte, error) {
		return []byte{1, 2, 3}, nil
	})
	_, err := Sign(Params{Content: []byte("x"), Certificate: cert, Signer: signer})
	assert.Error(t, err)
}
