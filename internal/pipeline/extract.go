package pipeline

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jhillyerd/enmime"
	pdf "github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// ErrUnsupported is returned for files that are not documents this pipeline reads.
var ErrUnsupported = errors.New("unsupported document type")

const wordNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

var (
	docxHeaderPart  = regexp.MustCompile(`^word/header[0-9]*\.xml$`)
	docxFooterPart  = regexp.MustCompile(`^word/footer[0-9]*\.xml$`)
	htmlSpaces      = regexp.MustCompile(`[ \t\r\n]+`)
	spacesBeforeTab = regexp.MustCompile(` +\t`)
)

// Document is the plain text of one input. Mail messages yield one Document for the
// body and one per readable attachment.
type Document struct {
	Name string
	Text string
}

// Supported reports whether name has an extension the reader understands. Word lock
// files ("~$report.docx") are never supported.
func Supported(name string) bool {
	if strings.HasPrefix(filepath.Base(name), "~$") {
		return false
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".docx", ".eml", ".html", ".htm", ".pdf", ".xlsx", ".txt":
		return true
	default:
		return false
	}
}

// ReadDocument converts blob to plain text according to the extension of name. Parts
// that cannot be read inside an otherwise readable file (a mail attachment, a PDF page)
// are logged at WARN and left out.
func ReadDocument(name string, blob []byte, logger *zap.Logger) ([]Document, error) {
	if !Supported(name) {
		return nil, ErrUnsupported
	}

	var (
		text string
		err  error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".docx":
		text, err = parseDOCX(blob)
	case ".eml":
		return parseEmail(name, blob, logger)
	case ".html", ".htm":
		text, err = parseHTML(blob)
	case ".pdf":
		text, err = parsePDF(name, blob, logger)
	case ".xlsx":
		text, err = parseXLSX(blob)
	case ".txt":
		text = normalizeNewlines(string(blob))
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return []Document{{Name: name, Text: text}}, nil
}

func parseDOCX(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", err
	}

	var body *zip.File
	var headers, footers []*zip.File
	for _, f := range zr.File {
		switch {
		case f.Name == "word/document.xml":
			body = f
		case docxHeaderPart.MatchString(f.Name):
			headers = append(headers, f)
		case docxFooterPart.MatchString(f.Name):
			footers = append(footers, f)
		}
	}
	if body == nil {
		return "", errors.New("missing word/document.xml")
	}

	parts := make([]*zip.File, 0, len(headers)+len(footers)+1)
	parts = append(parts, headers...)
	parts = append(parts, body)
	parts = append(parts, footers...)

	var b strings.Builder
	for _, part := range parts {
		if err := writeWordPart(&b, part); err != nil {
			return "", fmt.Errorf("%s: %w", part.Name, err)
		}
	}
	return b.String(), nil
}

// writeWordPart emits "\n\n" at every paragraph start, "\t" for tab runs and "\n" for
// breaks. Tab stop definitions inside w:tabs are not text.
func writeWordPart(b *strings.Builder, f *zip.File) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	dec := xml.NewDecoder(rc)
	inText := false
	tabStops := 0
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		switch el := tok.(type) {
		case xml.StartElement:
			if el.Name.Space != wordNS {
				continue
			}
			switch el.Name.Local {
			case "p":
				b.WriteString("\n\n")
			case "tabs":
				tabStops++
			case "tab":
				if tabStops == 0 {
					b.WriteByte('\t')
				}
			case "br", "cr":
				b.WriteByte('\n')
			case "t":
				inText = true
			}
		case xml.EndElement:
			if el.Name.Space != wordNS {
				continue
			}
			switch el.Name.Local {
			case "tabs":
				tabStops--
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText {
				b.Write(el)
			}
		}
	}
}

func parseEmail(name string, raw []byte, logger *zap.Logger) ([]Document, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	out := []Document{}
	if strings.TrimSpace(env.Text) != "" {
		out = append(out, Document{Name: name, Text: normalizeNewlines(env.Text)})
	}

	for _, att := range env.Attachments {
		filename := strings.TrimSpace(att.FileName)
		if filename == "" || !Supported(filename) {
			continue
		}
		part := name + "#" + filename
		extra, err := ReadDocument(part, att.Content, logger)
		if err != nil {
			logger.Warn("skipping unreadable attachment", zap.String("document", part), zap.Error(err))
			continue
		}
		out = append(out, extra...)
	}
	return out, nil
}

// parseHTML reads Word's "web page" export: one paragraph per <p>, tab spans as "\t".
func parseHTML(content []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	doc.Find("p").Each(func(_ int, p *goquery.Selection) {
		var para strings.Builder
		writeHTMLText(&para, p)
		b.WriteString("\n\n")
		b.WriteString(spacesBeforeTab.ReplaceAllString(para.String(), "\t"))
	})
	return b.String(), nil
}

func writeHTMLText(b *strings.Builder, sel *goquery.Selection) {
	sel.Contents().Each(func(_ int, node *goquery.Selection) {
		n := node.Get(0)
		switch {
		case n.Type == html.TextNode:
			text := htmlSpaces.ReplaceAllString(n.Data, " ")
			b.WriteString(strings.ReplaceAll(text, "\u00a0", " "))
		case n.Type != html.ElementNode:
		case n.Data == "br":
			b.WriteByte('\n')
		case n.Data == "span" && strings.Contains(node.AttrOr("style", ""), "mso-tab-count"):
			b.WriteByte('\t')
		default:
			writeHTMLText(b, node)
		}
	})
}

func parsePDF(name string, content []byte, logger *zap.Logger) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			logger.Warn("skipping unreadable pdf page", zap.String("document", name), zap.Int("page", i), zap.Error(err))
			continue
		}
		b.WriteString(normalizeNewlines(text))
	}
	return b.String(), nil
}

// parseXLSX reads label/value sheets: the label in the first column, the value in the
// following ones. Every non-empty row becomes a paragraph.
func parseXLSX(content []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return "", err
	}
	defer f.Close()

	var b strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			continue
		}
		for _, row := range rows {
			if strings.TrimSpace(strings.Join(row, "")) == "" {
				continue
			}
			b.WriteString("\n\n")
			b.WriteString(row[0])
			if len(row) > 1 || strings.HasSuffix(strings.TrimSpace(row[0]), ":") {
				b.WriteByte('\t')
				b.WriteString(strings.Join(row[1:], "\t"))
			}
		}
	}
	return b.String(), nil
}

func normalizeNewlines(text string) string {
	return strings.ReplaceAll(text, "\r\n", "\n")
}
