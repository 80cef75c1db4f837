package layout

import (
	"context"
	"fmt"

	"github.com/MeKo-Tech/pdfmark/internal/pdfreader"
)

// imageBlock renders one page image as a Markdown block: a bold caption
// naming the page and image, then a fenced block with the OCR text or a
// failure marker.
func (f *Fuser) imageBlock(ctx context.Context, pageNum, idx int, img pdfreader.ImageRegion) string {
	label := fmt.Sprintf("[Page %d, Image %d]", pageNum, idx+1)

	var body string
	switch {
	case f.ocr == nil:
		body = fmt.Sprintf("图片 %d 处理失败: OCR 未启用", idx)
	case img.Image == nil:
		body = fmt.Sprintf("图片 %d 处理失败: 图像数据缺失", idx)
	default:
		text, err := f.ocr.Recognize(ctx, img.Image)
		if err != nil {
			body = fmt.Sprintf("图片 %d 处理失败: %v", idx, err)
		} else {
			body = fmt.Sprintf("OCR 内容 %s:\n%s", label, text)
		}
	}

	return fmt.Sprintf("**%s**\n\n```\n%s\n```\n", label, body)
}
