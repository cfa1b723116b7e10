package smime

import (
	"fmt"
	"time"

	"github.com/bit4id/siaep7/internal/atomicfile"
	"github.com/bit4id/siaep7/internal/telemetry"
	"github.com/bit4id/siaep7/mimekit/base64x"
	"github.com/bit4id/siaep7/pkcs7"
)

// SignParams bundles the inputs SignSMIME needs to produce an opaque
// S/MIME message.
type SignParams struct {
	Text        string
	Attachments []Attachment
	Certificate []byte
	Signer      pkcs7.Signer
	OutPath     string

	// From, To and Subject become the outer message's RFC 2822
	// headers. Any left empty is simply omitted.
	From    string
	To      string
	Subject string
}

// SignSMIME assembles a multipart/mixed body from Text and
// Attachments, signs it with the on-card key via package pkcs7, and
// atomically writes the resulting application/x-pkcs7-mime message to
// OutPath: the message is written to a sibling temp file and only
// renamed into place once every write has succeeded, so a failure
// midway never leaves a truncated ticket record on disk.
func SignSMIME(p SignParams) error {
	mimeBody, err := MakeMIME(p.Text, p.Attachments)
	if err != nil {
		return err
	}

	signed, err := pkcs7.Sign(pkcs7.Params{
		Content:          []byte(mimeBody),
		Certificate:      p.Certificate,
		Signer:           p.Signer,
		EmbedCertificate: true,
	})
	if err != nil {
		return fmt.Errorf("smime: signing: %w", err)
	}

	encoded, err := base64x.EncodeToString(signed, base64x.DefaultLineLength)
	if err != nil {
		return fmt.Errorf("smime: encoding signature: %w", err)
	}

	out, err := atomicfile.New(p.OutPath)
	if err != nil {
		return fmt.Errorf("smime: opening %q: %w", p.OutPath, err)
	}
	if err := writeOuterMessage(out, p, encoded); err != nil {
		out.Close()
		return err
	}
	if err := out.Commit(); err != nil {
		return fmt.Errorf("smime: committing %q: %w", p.OutPath, err)
	}
	telemetry.SMIMEMessagesWritten.Inc()
	return nil
}

// writeOuterMessage writes the final RFC 2822 message: the From/To/
// Subject/Date envelope headers a mail client expects, followed by
// the MIME headers describing the opaque signed body.
func writeOuterMessage(w interface{ Write([]byte) (int, error) }, p SignParams, encodedBody string) error {
	now := time.Now().UTC()
	var parts []string
	parts = append(parts, header("Date", LegacyDateHeader(now.Year(), int(now.Month()), now.Day(), now.Hour(), now.Minute(), now.Second(), int(now.Weekday()))))
	if p.From != "" {
		parts = append(parts, header("From", p.From))
	}
	if p.To != "" {
		parts = append(parts, header("To", p.To))
	}
	if p.Subject != "" {
		parts = append(parts, header("Subject", p.Subject))
	}
	parts = append(parts,
		header("MIME-Version", "1.0"),
		header("Content-Type", `application/x-pkcs7-mime; smime-type=signed-data; name="smime.p7m"`),
		header("Content-Transfer-Encoding", "base64"),
		header("Content-Disposition", `attachment; filename="smime.p7m"`),
		"\r\n",
		encodedBody,
	)
	for _, part := range parts {
		if _, err := w.Write([]byte(part)); err != nil {
			return fmt.Errorf("smime: writing message: %w", err)
		}
	}
	return nil
}
