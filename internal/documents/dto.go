package documents

import "time"

// DocumentResponse is the outward-facing representation of a document.
// Extracted text is never included.
type DocumentResponse struct {
	DocumentID  string     `json:"documentId"`
	FileName    string     `json:"fileName"`
	MediaType   string     `json:"mediaType"`
	SizeBytes   int64      `json:"sizeBytes"`
	SHA256      string     `json:"sha256"`
	Visibility  Visibility `json:"visibility"`
	ShareToken  string     `json:"shareToken,omitempty"`
	State       State      `json:"state"`
	ProcessedAt *time.Time `json:"processedAt"`
	UploadedAt  time.Time  `json:"uploadedAt"`
}

// SharedDocumentResponse omits owner-only fields for share-token readers.
type SharedDocumentResponse struct {
	DocumentID string    `json:"documentId"`
	FileName   string    `json:"fileName"`
	MediaType  string    `json:"mediaType"`
	SizeBytes  int64     `json:"sizeBytes"`
	State      State     `json:"state"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// ListResponse is one page of documents.
type ListResponse struct {
	Items      []DocumentResponse `json:"items"`
	Total      int                `json:"total"`
	NextOffset *int               `json:"next_offset"`
}

func toResponse(doc Document) DocumentResponse {
	return DocumentResponse{
		DocumentID:  doc.ID,
		FileName:    doc.OriginalName,
		MediaType:   doc.MediaType,
		SizeBytes:   doc.ByteSize,
		SHA256:      doc.SHA256,
		Visibility:  doc.Visibility,
		ShareToken:  doc.ShareToken,
		State:       doc.State(),
		ProcessedAt: doc.ProcessedAt,
		UploadedAt:  doc.CreatedAt,
	}
}

func toSharedResponse(doc Document) SharedDocumentResponse {
	return SharedDocumentResponse{
		DocumentID: doc.ID,
		FileName:   doc.OriginalName,
		MediaType:  doc.MediaType,
		SizeBytes:  doc.ByteSize,
		State:      doc.State(),
		UploadedAt: doc.CreatedAt,
	}
}

func toListResponse(p Page) ListResponse {
	items := make([]DocumentResponse, 0, len(p.Items))
	for _, d := range p.Items {
		items = append(items, toResponse(d))
	}
	return ListResponse{Items: items, Total: p.Total, NextOffset: p.NextOffset}
}
