// Package parsing provides the upstream collaborators of the resolution
// engine: document text provisioning and invoice field extraction. The
// engine consumes the outputs of this package and never re-derives them.
package parsing

import (
	"bytes"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var pdfTextShowRe = regexp.MustCompile(`\((.*?)\)\s*T[jJ]`)

// DetectContentType resolves an upload's content type, preferring the
// declared header over sniffing when it is specific.
func DetectContentType(header string, data []byte) string {
	header = strings.TrimSpace(header)
	if header != "" && header != "application/octet-stream" {
		return header
	}
	return http.DetectContentType(data)
}

// ExtractText provisions searchable text for a document. Plain text content
// passes through unchanged. PDF content gets a best-effort extraction of
// text-show operands from each page's content stream; anything unreadable
// yields empty text, which downstream classification degrades to
// filename-only evidence rather than failing.
func ExtractText(data []byte, contentType string) string {
	if contentType == "application/pdf" {
		return extractPDFText(data)
	}
	if strings.HasPrefix(contentType, "text/") ||
		strings.Contains(contentType, "json") ||
		strings.Contains(contentType, "xml") {
		return string(data)
	}
	if isMostlyPrintable(data) {
		return string(data)
	}
	return ""
}

// PageCount returns the page count for PDF content, nil for everything else
// or unreadable PDFs.
func PageCount(data []byte, contentType string) *int {
	if contentType != "application/pdf" {
		return nil
	}
	count, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		return nil
	}
	return &count
}

func extractPDFText(data []byte) string {
	conf := model.NewDefaultConfiguration()
	conf.Cmd = model.EXTRACTCONTENT

	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return ""
	}

	var sb strings.Builder
	for page := 1; page <= ctx.PageCount; page++ {
		reader, err := pdfcpu.ExtractPageContent(ctx, page)
		if err != nil || reader == nil {
			continue
		}
		content, err := io.ReadAll(reader)
		if err != nil {
			continue
		}
		for _, m := range pdfTextShowRe.FindAllSubmatch(content, -1) {
			sb.Write(m[1])
			sb.WriteByte(' ')
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func isMostlyPrintable(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	sample := data
	if len(sample) > 4096 {
		sample = sample[:4096]
	}
	printable := 0
	for _, b := range sample {
		if b == '\n' || b == '\r' || b == '\t' || (b >= 0x20 && b < 0x7f) {
			printable++
		}
	}
	return printable*10 >= len(sample)*9
}
