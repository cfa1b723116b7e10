package smime

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bit4id/siaep7/asn1der"
	"github.com/bit4id/siaep7/pkcs7"
)

func fakeCert(t *testing.T) []byte {
	t.Helper()
	issuer := asn1der.Sequence(asn1der.Set(asn1der.Sequence(asn1der.OID("2.5.4.3"), asn1der.OctetString([]byte("Test CA")))))
	sigAlg := asn1der.Sequence(asn1der.OID("1.2.840.113549.1.1.1"), asn1der.Null())
	tbs := asn1der.Sequence(asn1der.Integer(1), sigAlg, issuer, issuer)
	return asn1der.Sequence(tbs, sigAlg, asn1der.OctetString([]byte("sig"))).Bytes()
}

func TestSignSMIMEWritesFile(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "message.p7m")

	fixedSig := make([]byte, pkcs7.KeyModulusBytes)
	signer := pkcs7.SignFunc(func(padded []byte) ([]byte, error) { return fixedSig, nil })

	err := SignSMIME(SignParams{
		Text:        "ticket accounting record",
		Certificate: fakeCert(t),
		Signer:      signer,
		OutPath:     out,
	})
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "application/x-pkcs7-mime")
	assert.Contains(t, string(data), "smime.p7m")
}

func TestSignSMIMEWritesFromToSubjectAndDateHeaders(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "message.p7m")

	fixedSig := make([]byte, pkcs7.KeyModulusBytes)
	signer := pkcs7.SignFunc(func(padded []byte) ([]byte, error) { return fixedSig, nil })

	err := SignSMIME(SignParams{
		Text:        "ticket accounting record",
		Certificate: fakeCert(t),
		Signer:      signer,
		OutPath:     out,
		From:        "cassa@example.it",
		To:          "siae@example.it",
		Subject:     "sigillo fiscale",
	})
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	body := string(data)
	assert.Contains(t, body, "From:cassa@example.it")
	assert.Contains(t, body, "To:siae@example.it")
	assert.Contains(t, body, "Subject:sigillo fiscale")
	assert.Contains(t, body, "Date:")
}

func TestSignSMIMEOmitsEmptyEnvelopeHeaders(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "message.p7m")

	fixedSig := make([]byte, pkcs7.KeyModulusBytes)
	signer := pkcs7.SignFunc(func(padded []byte) ([]byte, error) { return fixedSig, nil })

	err := SignSMIME(SignParams{
		Text:        "ticket accounting record",
		Certificate: fakeCert(t),
		Signer:      signer,
		OutPath:     out,
	})
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	body := string(data)
	assert.NotContains(t, body, "From:")
	assert.NotContains(t, body, "To:")
	assert.NotContains(t, body, "Subject:")
}

func TestSignSMIMELeavesNoFileOnSignerError(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "message.p7m")

	signer := pkcs7.SignFunc(func(padded []byte) ([]byte, error) {
		return nil, assertErr
	})
	err := SignSMIME(SignParams{Text: "x", Certificate: fakeCert(t), Signer: signer, OutPath: out})
	require.Error(t, err)
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

var assertErr = errCardDown{}

type errCardDown struct{}

func (errCardDown) Error() string { return "card down" }
