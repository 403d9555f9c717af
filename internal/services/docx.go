package services

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

const (
	docxMainPart = "word/document.xml"
	wordMLNS     = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
)

// DOCXContentType is the MIME type of generated Word documents
const DOCXContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// readDocxParagraphs returns the text of every top-level body paragraph, in order.
// Paragraphs inside tables, headers, footers and text boxes are not included.
func readDocxParagraphs(data []byte) ([]string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open docx archive: %w", err)
	}

	var part *zip.File
	for _, f := range zr.File {
		if f.Name == docxMainPart {
			part = f
			break
		}
	}
	if part == nil {
		return nil, fmt.Errorf("docx archive has no %s", docxMainPart)
	}

	rc, err := part.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", docxMainPart, err)
	}
	defer rc.Close()

	dec := xml.NewDecoder(rc)
	var (
		stack      []string
		paragraphs []string
		current    strings.Builder
		paraDepth  = -1 // stack index of the open body paragraph
		inText     bool
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", docxMainPart, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				if paraDepth < 0 && len(stack) > 0 && stack[len(stack)-1] == "body" {
					paraDepth = len(stack)
					current.Reset()
				}
			case "t":
				inText = paraDepth >= 0 && inParagraphRun(stack[paraDepth+1:])
			case "tab":
				if paraDepth >= 0 && inParagraphRun(stack[paraDepth+1:]) {
					current.WriteByte('\t')
				}
			case "br", "cr":
				if paraDepth >= 0 && inParagraphRun(stack[paraDepth+1:]) {
					current.WriteByte('\n')
				}
			}
			stack = append(stack, t.Name.Local)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			if t.Name.Local == "t" {
				inText = false
			}
			if paraDepth >= 0 && len(stack) == paraDepth {
				paragraphs = append(paragraphs, current.String())
				paraDepth = -1
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}

	return paragraphs, nil
}

// inParagraphRun reports whether the elements between a body paragraph and
// the current token form a run of that paragraph, either direct or inside a
// hyperlink. Text boxes, drawings and alternate content live deeper and are
// not part of the paragraph text.
func inParagraphRun(path []string) bool {
	switch len(path) {
	case 1:
		return path[0] == "r"
	case 2:
		return path[0] == "hyperlink" && path[1] == "r"
	}
	return false
}

// BuildDocx returns a minimal Word document with one paragraph per entry
func BuildDocx(paragraphs []string) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeDocx(&buf, paragraphs); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeDocx writes a minimal Word document with one paragraph per entry
func writeDocx(w io.Writer, paragraphs []string) error {
	zw := zip.NewWriter(w)

	parts := []struct {
		name string
		body string
	}{
		{"[Content_Types].xml", contentTypesXML},
		{"_rels/.rels", packageRelsXML},
		{docxMainPart, buildDocumentXML(paragraphs)},
	}

	for _, p := range parts {
		fw, err := zw.Create(p.name)
		if err != nil {
			return fmt.Errorf("failed to add %s: %w", p.name, err)
		}
		if _, err := io.WriteString(fw, p.body); err != nil {
			return fmt.Errorf("failed to write %s: %w", p.name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize docx: %w", err)
	}
	return nil
}

func buildDocumentXML(paragraphs []string) string {
	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString(`<w:document xmlns:w="` + wordMLNS + `"><w:body>`)
	for _, para := range paragraphs {
		b.WriteString(`<w:p>`)
		if para != "" {
			b.WriteString(`<w:r><w:t xml:space="preserve">`)
			_ = xml.EscapeText(&b, []byte(para))
			b.WriteString(`</w:t></w:r>`)
		}
		b.WriteString(`</w:p>`)
	}
	b.WriteString(`<w:sectPr/></w:body></w:document>`)
	return b.String()
}

const contentTypesXML = xml.Header + `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
	`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
	`<Default Extension="xml" ContentType="application/xml"/>` +
	`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
	`</Types>`

const packageRelsXML = xml.Header + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
	`</Relationships>`
