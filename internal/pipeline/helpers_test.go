package pipeline

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

// claimFixture renders one claim report entry the way Word lays it out.
type claimFixture struct {
	Claim    string
	Name     string
	Death    string
	Street   string
	Locality string
}

func (c claimFixture) paragraphs() []string {
	name := c.Name
	if name == "" {
		name = "PEDRO I PEREZ"
	}
	return []string{
		"Claim Number:\t  " + c.Claim,
		"Claim Number Cross Reference:\t",
		"Name:\t  " + name,
		"Birth Date:\t  05/24/1949",
		"Date of Death:\t" + c.Death,
		"Sex:\t  M",
		"Address:\t  " + c.Street,
		"  " + c.Locality,
		"Most recent State:\t  NY (33)",
		"Most recent County:\t  QUEENS (590)",
	}
}

func paragraphsOf(claims ...claimFixture) []string {
	var out []string
	for _, c := range claims {
		out = append(out, c.paragraphs()...)
	}
	return out
}

// docText is the plain text a Word document with these paragraphs converts to.
func docText(paragraphs []string) string {
	return "\n\n" + strings.Join(paragraphs, "\n\n")
}

func mkDOCX(t *testing.T, paragraphs []string) []byte {
	t.Helper()

	var body strings.Builder
	body.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	body.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paragraphs {
		body.WriteString(`<w:p><w:pPr><w:tabs><w:tab w:val="left" w:pos="2880"/></w:tabs></w:pPr>`)
		for i, run := range strings.Split(p, "\t") {
			if i > 0 {
				body.WriteString(`<w:r><w:tab/></w:r>`)
			}
			if run == "" {
				continue
			}
			body.WriteString(`<w:r><w:t xml:space="preserve">`)
			if err := xml.EscapeText(&body, []byte(run)); err != nil {
				t.Fatal(err)
			}
			body.WriteString(`</w:t></w:r>`)
		}
		body.WriteString(`</w:p>`)
	}
	body.WriteString(`</w:body></w:document>`)

	buf := bytes.NewBuffer(nil)
	zw := zip.NewWriter(buf)
	files := map[string]string{
		"[Content_Types].xml": `<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`,
		"word/document.xml":   body.String(),
	}
	for _, name := range []string{"[Content_Types].xml", "word/document.xml"} {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(files[name])); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func mkXLSX(rows [][]any) []byte {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for r, row := range rows {
		for c, v := range row {
			if s, ok := v.(string); ok && s == "" {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}
	buf := bytes.NewBuffer(nil)
	_, _ = f.WriteTo(buf)
	return buf.Bytes()
}

func sp(v string) *string { return &v }

func deref(v *string) string {
	if v == nil {
		return "<nil>"
	}
	return *v
}
