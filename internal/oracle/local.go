package oracle

import (
	"context"

	"docqa-backend/internal/extract"
)

// LocalExtractor reads text, PDF and DOCX files in-process.
type LocalExtractor struct{}

// ExtractText delegates to the extract package.
func (LocalExtractor) ExtractText(ctx context.Context, f File) (string, error) {
	return extract.ExtractTextFromBytes(ctx, f.Data, f.MediaType, f.Name)
}

// Fallback tries Primary first and Secondary on any Primary failure, unless
// the context is already done.
type Fallback struct {
	Primary   Extractor
	Secondary Extractor
}

// ExtractText implements Extractor.
func (f Fallback) ExtractText(ctx context.Context, file File) (string, error) {
	text, err := f.Primary.ExtractText(ctx, file)
	if err == nil || f.Secondary == nil || ctx.Err() != nil {
		return text, err
	}
	return f.Secondary.ExtractText(ctx, file)
}

var (
	_ Extractor = LocalExtractor{}
	_ Extractor = Fallback{}
)
