package documents

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

type allowedType struct {
	mediaType string
	// sniffed lists detected types compatible with the extension. Office
	// formats are only recognizable as their container at the sniff limit.
	sniffed []string
}

var allowedTypes = map[string]allowedType{
	".pdf":  {mediaType: "application/pdf", sniffed: []string{"application/pdf"}},
	".txt":  {mediaType: "text/plain", sniffed: []string{"text/plain"}},
	".doc":  {mediaType: "application/msword", sniffed: []string{"application/msword", "application/x-ole-storage"}},
	".docx": {mediaType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document", sniffed: []string{"application/vnd.openxmlformats-officedocument.wordprocessingml.document", "application/zip"}},
	".jpg":  {mediaType: "image/jpeg", sniffed: []string{"image/jpeg"}},
	".jpeg": {mediaType: "image/jpeg", sniffed: []string{"image/jpeg"}},
	".png":  {mediaType: "image/png", sniffed: []string{"image/png"}},
}

// sniffLen is how many leading bytes are inspected.
const sniffLen = 3072

// resolveMediaType checks the file extension against the allow list and the
// leading bytes against the extension, returning the canonical media type.
func resolveMediaType(fileName string, head []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	allowed, ok := allowedTypes[ext]
	if !ok {
		return "", ErrUnsupportedType
	}
	detected := mimetype.Detect(head)
	for m := detected; m != nil; m = m.Parent() {
		for _, want := range allowed.sniffed {
			if m.Is(want) {
				return allowed.mediaType, nil
			}
		}
	}
	return "", ErrUnsupportedType
}
