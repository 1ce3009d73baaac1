/*
Package pdf wraps the external PDF libraries behind a small Document
interface.

pdfcpu parses document structure and the information dictionary (page
count, title, author, dates); libvips rasterizes page 0 for cover
thumbnails. The extraction pipeline only ever sees the Opener and
Document interfaces, so tests run against fakes and the real libraries
stay at the edge.

Covers are written once per content hash as <hash prefix>.jpg; a
rendering failure is reported to the caller, which downgrades it to
"no cover" rather than failing the file.
*/
package pdf
