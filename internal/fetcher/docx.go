package fetcher

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
)

const docxBody = "word/document.xml"

type docxRun struct {
	Text []string `xml:"t"`
}

type docxParagraph struct {
	Runs []docxRun `xml:"r"`
}

func (p docxParagraph) text() string {
	var sb strings.Builder
	for _, r := range p.Runs {
		for _, t := range r.Text {
			sb.WriteString(t)
		}
	}
	return sb.String()
}

// DocxText returns the paragraph text of a .docx document, one paragraph
// per line.
func DocxText(ctx context.Context, path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", eris.Wrapf(err, "fetcher: open docx %s", path)
	}
	defer zr.Close() //nolint:errcheck

	text, err := docxBodyText(ctx, &zr.Reader)
	if err != nil {
		return "", eris.Wrapf(err, "fetcher: read docx %s", path)
	}
	return text, nil
}

func docxBodyText(ctx context.Context, zr *zip.Reader) (string, error) {
	entry, err := namedEntry(zr.File, docxBody)
	if err != nil {
		return "", err
	}
	rc, err := entry.Open()
	if err != nil {
		return "", eris.Wrapf(err, "fetcher: open %s", docxBody)
	}
	defer rc.Close() //nolint:errcheck

	lines, err := paragraphs(ctx, rc)
	if err != nil {
		return "", err
	}
	return strings.Join(lines, "\n"), nil
}

// paragraphs returns the text of every <p> element in document order,
// whatever its namespace prefix, including paragraphs inside tables.
// Documents declaring a non-UTF-8 encoding are transcoded.
func paragraphs(ctx context.Context, r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		enc, err := htmlindex.Get(charset)
		if err != nil {
			return nil, eris.Wrapf(err, "fetcher: unsupported charset %q", charset)
		}
		return enc.NewDecoder().Reader(input), nil
	}

	var lines []string
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return lines, nil
		}
		if err != nil {
			return nil, eris.Wrap(err, "fetcher: parse document xml")
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "p" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "fetcher: docx read cancelled")
		}

		var p docxParagraph
		if err := dec.DecodeElement(&p, &start); err != nil {
			return nil, eris.Wrap(err, "fetcher: decode paragraph")
		}
		lines = append(lines, p.text())
	}
}
