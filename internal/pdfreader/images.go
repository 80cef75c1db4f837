package pdfreader

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// pageImages returns the embedded raster images of page n in discovery
// order. Extraction runs once for the whole document and is cached.
func (d *fileDocument) pageImages(n int) ([]ImageRegion, error) {
	d.imgOnce.Do(d.extractAllImages)
	if d.imgErr != nil {
		return nil, d.imgErr
	}

	srcs := d.images[n]
	regions := make([]ImageRegion, 0, len(srcs))
	for i, img := range srcs {
		// pdfcpu reports image content but not page-space placements, so
		// the bbox anchors at +Inf and the image is emitted after all
		// positioned elements.
		regions = append(regions, UnplacedImage(i, img))
	}
	return regions, nil
}

// UnplacedImage builds an ImageRegion with no known page placement.
// Its bbox anchors at +Inf so it sorts after positioned content.
func UnplacedImage(index int, img image.Image) ImageRegion {
	return ImageRegion{
		Index: index,
		BBox:  Rect{X0: 0, Y0: math.Inf(1), X1: 0, Y1: math.Inf(1)},
		Image: img,
	}
}

// extractAllImages extracts every embedded image via pdfcpu into a
// temporary directory and decodes them grouped by page number.
func (d *fileDocument) extractAllImages() {
	tempDir, err := os.MkdirTemp("", "pdfmark-extract-*")
	if err != nil {
		d.imgErr = fmt.Errorf("failed to create temp directory: %w", err)
		return
	}
	defer func() { _ = os.RemoveAll(tempDir) }()

	if err := api.ExtractImagesFile(d.path, tempDir, nil, nil); err != nil {
		d.imgErr = fmt.Errorf("failed to extract images: %w", err)
		return
	}

	result := make(map[int][]image.Image)
	err = filepath.Walk(tempDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		pageNum, err := parsePageFromFilename(info.Name())
		if err != nil {
			return nil // not a page image file
		}

		img, err := loadImageFile(path)
		if err != nil {
			return nil // skip undecodable images
		}
		result[pageNum] = append(result[pageNum], img)
		return nil
	})
	if err != nil {
		d.imgErr = fmt.Errorf("failed to collect extracted images: %w", err)
		return
	}

	d.images = result
}

func loadImageFile(path string) (image.Image, error) {
	file, err := os.Open(path) //nolint:gosec // G304: extraction temp dir path
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	img, _, err := image.Decode(file)
	return img, err
}

// parsePageFromFilename extracts the page number from a pdfcpu extracted
// image filename. pdfcpu names files like <base>_page_2_Im0.png; older
// versions use page_2_image_1.png. Both carry the page number in the
// token following "page".
func parsePageFromFilename(filename string) (int, error) {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	parts := strings.Split(base, "_")
	for i, part := range parts {
		if part != "page" || i+1 >= len(parts) {
			continue
		}
		pageNum, err := strconv.Atoi(parts[i+1])
		if err == nil && pageNum > 0 {
			return pageNum, nil
		}
	}
	// Fall back to the first integer token.
	for _, part := range parts {
		if pageNum, err := strconv.Atoi(part); err == nil && pageNum > 0 {
			return pageNum, nil
		}
	}
	return 0, fmt.Errorf("no page number in %q", filename)
}
