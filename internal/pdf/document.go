package pdf

import (
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"pdfshelf/internal/logging"
)

// MetadataField names a document information dictionary entry.
type MetadataField string

const (
	FieldTitle        MetadataField = "Title"
	FieldAuthor       MetadataField = "Author"
	FieldSubject      MetadataField = "Subject"
	FieldKeywords     MetadataField = "Keywords"
	FieldCreator      MetadataField = "Creator"
	FieldProducer     MetadataField = "Producer"
	FieldCreationDate MetadataField = "CreationDate"
	FieldModDate      MetadataField = "ModDate"
)

// Document is an opened PDF. Implementations are not safe for
// concurrent use; the extraction pipeline opens one document per file
// per worker.
type Document interface {
	// PageCount returns the number of pages.
	PageCount() int
	// Metadata returns the value of an info-dictionary field. The
	// second return value is false when the document does not supply
	// the field.
	Metadata(field MetadataField) (string, bool)
	// RenderFirstPage rasterizes page 0.
	RenderFirstPage() (image.Image, error)
	// Close releases resources held by the document.
	Close() error
}

// Opener opens PDF documents. The pipeline depends on this interface
// so tests can substitute fakes for real PDF parsing.
type Opener interface {
	Open(path string) (Document, error)
}

// LibraryOpener opens documents with pdfcpu for structure and metadata
// and libvips for rasterization.
type LibraryOpener struct {
	// RenderDPI is the density used when rasterizing pages. PDFs
	// default to 72 DPI; higher values produce sharper covers.
	RenderDPI int
}

// NewLibraryOpener returns an Opener with the default render density.
func NewLibraryOpener() *LibraryOpener {
	return &LibraryOpener{RenderDPI: 144}
}

// Open parses the document at path. Corrupt and password-protected
// files fail here; the caller reports them per-file and moves on.
func (o *LibraryOpener) Open(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	info, err := api.PDFInfo(f, path, nil, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	fields := map[MetadataField]string{
		FieldTitle:        info.Title,
		FieldAuthor:       info.Author,
		FieldSubject:      info.Subject,
		FieldKeywords:     strings.Join(info.Keywords, ", "),
		FieldCreator:      info.Creator,
		FieldProducer:     info.Producer,
		FieldCreationDate: info.CreationDate,
		FieldModDate:      info.ModificationDate,
	}

	logging.Debug("Parsed %s: %d pages", path, info.PageCount)

	return &libraryDocument{
		path:      path,
		pageCount: info.PageCount,
		fields:    fields,
		renderDPI: o.RenderDPI,
	}, nil
}

type libraryDocument struct {
	path      string
	pageCount int
	fields    map[MetadataField]string
	renderDPI int
}

func (d *libraryDocument) PageCount() int {
	return d.pageCount
}

func (d *libraryDocument) Metadata(field MetadataField) (string, bool) {
	v, ok := d.fields[field]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func (d *libraryDocument) RenderFirstPage() (image.Image, error) {
	return renderPageWithVips(d.path, 0, d.renderDPI)
}

func (d *libraryDocument) Close() error {
	// pdfcpu reads the whole structure up front; nothing to release.
	return nil
}
