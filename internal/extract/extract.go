// Package extract pulls plain text out of uploaded files without calling a
// remote oracle.
package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
)

const (
	mimePDF   = "application/pdf"
	mimeDOCX  = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeText  = "text/plain"
	mimeZip   = "application/zip"
	mimeOctet = "application/octet-stream"

	docxBody = "word/document.xml"
)

// ErrUnsupported is returned for media types this package cannot read.
var ErrUnsupported = errors.New("unsupported media type")

type reader func(data []byte) (string, error)

var readers = map[string]reader{
	mimePDF:  readPDF,
	mimeDOCX: readDOCX,
	mimeText: readPlain,
}

// ExtractTextFromBytes returns the text content of a stored document. The
// declared media type wins unless it is missing or a bare container type.
func ExtractTextFromBytes(ctx context.Context, data []byte, mediaType string, fileName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	resolved := resolveType(mediaType, fileName, data)
	read, ok := readers[resolved]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupported, resolved)
	}
	text, err := read(data)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", resolved, err)
	}
	return text, nil
}

func resolveType(declared, fileName string, data []byte) string {
	resolved := baseType(declared)
	if resolved == "" || resolved == mimeOctet {
		resolved = baseType(mimetype.Detect(data).String())
	}
	if resolved == mimeZip && (hasZipEntry(data, docxBody) || strings.EqualFold(filepath.Ext(fileName), ".docx")) {
		return mimeDOCX
	}
	return resolved
}

func baseType(mediaType string) string {
	head, _, _ := strings.Cut(mediaType, ";")
	return strings.ToLower(strings.TrimSpace(head))
}

func readPDF(data []byte) (string, error) {
	doc, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := doc.GetPlainText()
	if err != nil {
		return "", err
	}
	raw, err := io.ReadAll(plain)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}

func readPlain(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", errors.New("text is not valid utf-8")
	}
	return strings.TrimSpace(string(data)), nil
}

func readDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	entry := findZipEntry(zr, docxBody)
	if entry == nil {
		return "", fmt.Errorf("%s missing", docxBody)
	}
	rc, err := entry.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()
	return paragraphs(rc)
}

// paragraphs joins the runs of each w:p element with a newline between
// paragraphs and at w:br breaks.
func paragraphs(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var out strings.Builder
	inText := false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			inText = t.Name.Local == "t"
		case xml.CharData:
			if inText {
				out.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p", "br":
				if out.Len() > 0 {
					out.WriteByte('\n')
				}
			}
		}
	}
	return strings.TrimSpace(out.String()), nil
}

func hasZipEntry(data []byte, name string) bool {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return false
	}
	return findZipEntry(zr, name) != nil
}

func findZipEntry(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == name {
			return f
		}
	}
	return nil
}
