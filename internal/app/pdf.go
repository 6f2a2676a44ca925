package app

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// WritePDF renders a one-question handout: the question as a heading, the
// answer text, its source, the illustration when there is one, and the
// caption. Layout is plain.
func WritePDF(resp Response, caption, outPath string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.MultiCell(0, 8, tr(strings.TrimSpace(resp.Question)), "", "L", false)
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "", 11)
	for _, para := range strings.Split(strings.TrimSpace(resp.Answer.Text), "\n") {
		if s := strings.TrimSpace(para); s != "" {
			pdf.MultiCell(0, 5, tr(s), "", "L", false)
			pdf.Ln(2)
		}
	}
	if resp.Answer.Found() {
		pdf.SetFont("Helvetica", "I", 9)
		pdf.CellFormat(0, 6, tr("Source: "+resp.Answer.Source), "", 1, "L", false, 0, "")
	}

	if resp.Image != nil && resp.Image.OK() {
		img := resp.Image.Image
		imgType := pdfImageType(img.Format)
		if imgType == "" {
			return fmt.Errorf("pdf: unsupported image format %q", img.Format)
		}
		opts := gofpdf.ImageOptions{ImageType: imgType, ReadDpi: false}
		pdf.RegisterImageOptionsReader("illustration", opts, bytes.NewReader(img.Data))
		pageW, _ := pdf.GetPageSize()
		w := 100.0
		pdf.Ln(4)
		pdf.ImageOptions("illustration", (pageW-w)/2, pdf.GetY(), w, 0, true, opts, 0, "")
	}

	if c := strings.TrimSpace(caption); c != "" {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "", 9)
		pdf.MultiCell(0, 5, tr(c), "", "C", false)
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("pdf: %w", err)
	}
	return pdf.OutputFileAndClose(outPath)
}

func pdfImageType(format string) string {
	switch strings.ToLower(format) {
	case "png":
		return "PNG"
	case "jpeg", "jpg":
		return "JPG"
	case "gif":
		return "GIF"
	}
	return ""
}
