package pkcs7

// PKCS#7/CMS and PKCS#9 object identifiers used by the SignedData
// builder. Kept as plain dotted strings passed straight to
// asn1der.OID rather than a registry type, since this fixed set never
// grows.
const (
	oidData              = "1.2.840.113549.1.7.1"
	oidSignedData        = "1.2.840.113549.1.7.2"
	oidSHA1              = "1.3.14.3.2.26"
	oidRSAEncryption     = "1.2.840.113549.1.1.1"
	oidContentType       = "1.2.840.113549.1.9.3"
	oidMessageDigest     = "1.2.840.113549.1.9.4"
	oidSigningTime       = "1.2.840.113549.1.9.5"
	oidSMIMECapabilities = "1.2.840.113549.1.9.15"
	oidDESEDE3CBC        = "1.2.840.113549.3.7"
	oidDESCBC            = "1.3.14.3.2.7"
	oidSHA1WithRSA       = "1.2.840.113549.1.1.5"
)
