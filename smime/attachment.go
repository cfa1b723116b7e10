package smime

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Attachment is one file to embed in the multipart body.
type Attachment struct {
	Name string // display name in the Content-Disposition header
	Path string // filesystem path to read the content from
}

// ParseAttachmentList parses the "name|path;name|path;..." spec
// callers pass on the command line: semicolon-separated entries, each
// a display name and a filesystem path joined by a pipe. A bare path
// with no pipe uses its base filename as the display name.
func ParseAttachmentList(spec string) ([]Attachment, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, nil
	}
	entries := strings.Split(spec, ";")
	out := make([]Attachment, 0, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if idx := strings.IndexByte(e, '|'); idx >= 0 {
			out = append(out, Attachment{Name: e[:idx], Path: e[idx+1:]})
		} else {
			out = append(out, Attachment{Name: filepath.Base(e), Path: e})
		}
	}
	return out, nil
}

// Load reads the attachment's content from disk.
func (a Attachment) Load() ([]byte, error) {
	data, err := os.ReadFile(a.Path)
	if err != nil {
		return nil, fmt.Errorf("smime: reading attachment %q: %w", a.Name, err)
	}
	return data, nil
}
