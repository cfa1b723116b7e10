package smime

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/bit4id/siaep7/mimekit/base64x"
	"github.com/bit4id/siaep7/mimekit/qp"
)

// NewBoundary returns a fresh multipart boundary in the
// "----=_NextPart_XXXXXXXX" shape common mail generators use,
// deriving the random suffix from a UUID rather than a hand-rolled
// random-string generator.
func NewBoundary() string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "----=_NextPart_" + id[:8]
}

// NewMessageID returns an RFC 2822 Message-ID value.
func NewMessageID(domain string) string {
	return fmt.Sprintf("<%s@%s>", uuid.NewString(), domain)
}

// MakeMIME builds a multipart/mixed body from a plain-text part and a
// list of attachments: the text part is quoted-printable encoded, each
// attachment is base64 encoded at the default line length. It returns
// the full body including its own top-level Content-Type header, ready
// to be wrapped as the content of an outer message or handed straight
// to pkcs7.Sign as the data being signed.
func MakeMIME(text string, attachments []Attachment) (string, error) {
	boundary := NewBoundary()
	var sb strings.Builder

	sb.WriteString(header("Content-Type", fmt.Sprintf(`multipart/mixed; boundary="%s"`, boundary)))
	sb.WriteString("\r\n")

	sb.WriteString("--" + boundary + "\r\n")
	sb.WriteString(header("Content-Type", "text/plain; charset=us-ascii"))
	sb.WriteString(header("Content-Transfer-Encoding", "quoted-printable"))
	sb.WriteString("\r\n")
	sb.Write(qp.Encode([]byte(text)))
	sb.WriteString("\r\n")

	for _, a := range attachments {
		data, err := a.Load()
		if err != nil {
			return "", err
		}
		encoded, err := base64x.EncodeToString(data, base64x.DefaultLineLength)
		if err != nil {
			return "", fmt.Errorf("smime: encoding attachment %q: %w", a.Name, err)
		}
		sb.WriteString("--" + boundary + "\r\n")
		sb.WriteString(header("Content-Type", fmt.Sprintf(`application/octet-stream; name="%s"`, a.Name)))
		sb.WriteString(header("Content-Transfer-Encoding", "base64"))
		sb.WriteString(header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, a.Name)))
		sb.WriteString("\r\n")
		sb.WriteString(encoded)
	}

	sb.WriteString("--" + boundary + "--\r\n")
	return sb.String(), nil
}
