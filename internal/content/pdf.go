package content

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

const (
	pageMargin = 18.0
	bodySize   = 11.0
	lineHeight = 5.5
)

// ToPDF renders product markdown to a paginated PDF. It walks the parsed
// block tree once, drawing each block and breaking pages by hand when the
// cursor runs out of room.
func ToPDF(source string) ([]byte, error) {
	src := []byte(StripAuthoringPreamble(source))
	doc := md.Parser().Parse(text.NewReader(src))

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, pageMargin)
	pdf.AddPage()

	r := &pdfWriter{pdf: pdf, src: src}
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		r.block(n, 0)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type pdfWriter struct {
	pdf *fpdf.Fpdf
	src []byte
}

func (r *pdfWriter) contentWidth() float64 {
	w, _ := r.pdf.GetPageSize()
	return w - 2*pageMargin
}

func (r *pdfWriter) ensureRoom(need float64) {
	_, h := r.pdf.GetPageSize()
	if r.pdf.GetY()+need > h-pageMargin {
		r.pdf.AddPage()
	}
}

func (r *pdfWriter) block(n ast.Node, indent float64) {
	switch b := n.(type) {
	case *ast.Heading:
		sizes := map[int]float64{1: 20, 2: 16, 3: 14, 4: 12, 5: 11, 6: 11}
		size := sizes[b.Level]
		r.ensureRoom(size + 8)
		r.pdf.SetFont("Helvetica", "B", size)
		r.pdf.SetX(pageMargin + indent)
		r.pdf.MultiCell(r.contentWidth()-indent, size*0.5, nodeText(b, r.src), "", "L", false)
		r.pdf.Ln(2)

	case *ast.Paragraph, *ast.TextBlock:
		r.ensureRoom(lineHeight * 2)
		r.pdf.SetFont("Helvetica", "", bodySize)
		r.pdf.SetX(pageMargin + indent)
		r.pdf.MultiCell(r.contentWidth()-indent, lineHeight, nodeText(n, r.src), "", "L", false)
		r.pdf.Ln(2)

	case *ast.List:
		r.list(b, indent)
		r.pdf.Ln(1)

	case *ast.FencedCodeBlock, *ast.CodeBlock:
		r.codeBlock(n, indent)

	case *ast.Blockquote:
		r.pdf.SetFont("Helvetica", "I", bodySize)
		for c := b.FirstChild(); c != nil; c = c.NextSibling() {
			r.ensureRoom(lineHeight * 2)
			r.pdf.SetX(pageMargin + indent + 6)
			r.pdf.MultiCell(r.contentWidth()-indent-6, lineHeight, nodeText(c, r.src), "", "L", false)
		}
		r.pdf.Ln(2)

	case *ast.ThematicBreak:
		r.ensureRoom(8)
		y := r.pdf.GetY() + 3
		r.pdf.SetDrawColor(160, 160, 160)
		r.pdf.Line(pageMargin, y, pageMargin+r.contentWidth(), y)
		r.pdf.SetY(y + 3)

	case *east.Table:
		r.table(b)

	default:
		// Unhandled block kinds (raw HTML etc.) fall back to their text.
		if txt := nodeText(n, r.src); txt != "" {
			r.ensureRoom(lineHeight * 2)
			r.pdf.SetFont("Helvetica", "", bodySize)
			r.pdf.SetX(pageMargin + indent)
			r.pdf.MultiCell(r.contentWidth()-indent, lineHeight, txt, "", "L", false)
			r.pdf.Ln(2)
		}
	}
}

func (r *pdfWriter) list(l *ast.List, indent float64) {
	idx := l.Start
	if idx == 0 {
		idx = 1
	}
	for item := l.FirstChild(); item != nil; item = item.NextSibling() {
		marker := "• "
		if l.IsOrdered() {
			marker = itoaDot(idx)
			idx++
		}
		first := true
		for c := item.FirstChild(); c != nil; c = c.NextSibling() {
			if nested, ok := c.(*ast.List); ok {
				r.list(nested, indent+6)
				continue
			}
			r.ensureRoom(lineHeight * 2)
			r.pdf.SetFont("Helvetica", "", bodySize)
			txt := nodeText(c, r.src)
			if first {
				txt = marker + txt
				first = false
			}
			r.pdf.SetX(pageMargin + indent + 4)
			r.pdf.MultiCell(r.contentWidth()-indent-4, lineHeight, txt, "", "L", false)
		}
	}
}

func (r *pdfWriter) codeBlock(n ast.Node, indent float64) {
	r.pdf.SetFont("Courier", "", bodySize-1)
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		line := strings.TrimRight(string(seg.Value(r.src)), "\n")
		r.ensureRoom(lineHeight)
		r.pdf.SetX(pageMargin + indent + 4)
		r.pdf.CellFormat(r.contentWidth()-indent-4, lineHeight, line, "", 1, "L", false, 0, "")
	}
	r.pdf.Ln(2)
}

func (r *pdfWriter) table(t *east.Table) {
	// Column count from the header row.
	cols := 0
	if hdr := t.FirstChild(); hdr != nil {
		for c := hdr.FirstChild(); c != nil; c = c.NextSibling() {
			cols++
		}
	}
	if cols == 0 {
		return
	}
	colW := r.contentWidth() / float64(cols)

	for row := t.FirstChild(); row != nil; row = row.NextSibling() {
		_, isHeader := row.(*east.TableHeader)
		r.ensureRoom(lineHeight + 2)
		if isHeader {
			r.pdf.SetFont("Helvetica", "B", bodySize)
		} else {
			r.pdf.SetFont("Helvetica", "", bodySize)
		}
		r.pdf.SetX(pageMargin)
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			r.pdf.CellFormat(colW, lineHeight+2, nodeText(cell, r.src), "1", 0, "L", false, 0, "")
		}
		r.pdf.Ln(lineHeight + 2)
	}
	r.pdf.Ln(2)
}

// nodeText flattens a node's inline content to plain text.
func nodeText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.AutoLink:
			b.Write(t.URL(src))
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

func itoaDot(n int) string {
	if n <= 0 {
		n = 1
	}
	return strconv.Itoa(n) + ". "
}
