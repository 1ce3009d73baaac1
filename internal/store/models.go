package store

// PdfMetadata is the canonical record for one piece of PDF content.
//
// Hash identifies content, not a path: the same bytes found at two
// different paths are one record whose Path holds the most recently
// seen location. Document property fields are empty strings when the
// source document does not supply them.
type PdfMetadata struct {
	Hash             string `json:"hash"`
	PartialHash      string `json:"partialHash"`
	Path             string `json:"path"`
	Title            string `json:"title,omitempty"`
	Author           string `json:"author,omitempty"`
	Subject          string `json:"subject,omitempty"`
	Keywords         string `json:"keywords,omitempty"`
	Creator          string `json:"creator,omitempty"`
	Producer         string `json:"producer,omitempty"`
	CreationDate     string `json:"creationDate,omitempty"`
	ModificationDate string `json:"modificationDate,omitempty"`
	PageCount        int    `json:"pageCount"`
	CoverPath        string `json:"coverPath,omitempty"`
	FileSize         int64  `json:"fileSize"`
}

// CoverFilename returns the on-disk cover thumbnail name for a full
// content hash: the first 16 hex characters plus ".jpg".
func CoverFilename(hash string) string {
	if len(hash) < 16 {
		return hash + ".jpg"
	}
	return hash[:16] + ".jpg"
}
