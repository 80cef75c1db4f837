package pdfreader

import "image"

// TextSpan is a left-to-right run of text sharing one font and size.
type TextSpan struct {
	Text     string
	FontSize float64
	Bold     bool
	BBox     Rect
}

// TextLine is a single visual line made of one or more spans.
type TextLine struct {
	Spans []TextSpan
	BBox  Rect
}

// TextBlock groups consecutive lines that form one logical paragraph.
type TextBlock struct {
	Lines []TextLine
	BBox  Rect
}

// TableRegion is a detected table with its extracted cell matrix.
// Rows are rectangular; missing cells are empty strings.
type TableRegion struct {
	Index int
	BBox  Rect
	Cells [][]string
}

// ImageRegion is an embedded raster image on a page. When the reader
// cannot resolve a page-space placement, BBox.Y0 is +Inf so the image
// sorts after all positioned content.
type ImageRegion struct {
	Index int
	BBox  Rect
	Image image.Image
}

// Page holds everything extracted from a single PDF page.
type Page struct {
	Number int
	Bounds Rect
	Blocks []TextBlock
	Tables []TableRegion
	Images []ImageRegion
}

// Document provides deterministic, document-order-preserving access to
// the pages of an opened PDF.
type Document interface {
	// PageCount returns the total number of pages.
	PageCount() int

	// Page extracts the geometry of page n (1-based).
	Page(n int) (*Page, error)

	Close() error
}
