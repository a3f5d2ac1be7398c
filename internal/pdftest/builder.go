// Package pdftest builds small single-font AcroForm PDFs for tests.
package pdftest

import (
	"bytes"
	"fmt"
	"strings"
)

// Text is a line of Helvetica text drawn at baseline (X, Y) in PDF user space.
type Text struct {
	X, Y float64
	Size float64
	S    string
}

// Field is a text-field widget. Rect is [llx lly urx ury] in PDF user space.
// An empty Name omits /T.
type Field struct {
	Name    string
	Tooltip string
	Rect    [4]float64
}

// Page describes one US Letter page.
type Page struct {
	Texts  []Text
	Fields []Field
}

// GlyphWidth is the advance, in 1/1000 em, given to every character.
const GlyphWidth = 500

// Build renders pages into a PDF with a classic xref table.
func Build(pages ...Page) []byte {
	const (
		catalogObj = 1
		pagesObj   = 2
		acroObj    = 3
		fontObj    = 4
		firstFree  = 5
	)

	type pageNums struct {
		page, content int
		fields        []int
	}
	nums := make([]pageNums, len(pages))
	next := firstFree
	for i, p := range pages {
		nums[i].page = next
		nums[i].content = next + 1
		next += 2
		for range p.Fields {
			nums[i].fields = append(nums[i].fields, next)
			next++
		}
	}

	objects := make(map[int]string)

	var kids, allFields []string
	for i := range pages {
		kids = append(kids, ref(nums[i].page))
		for _, f := range nums[i].fields {
			allFields = append(allFields, ref(f))
		}
	}

	objects[catalogObj] = fmt.Sprintf("<< /Type /Catalog /Pages %s /AcroForm %s >>", ref(pagesObj), ref(acroObj))
	objects[pagesObj] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages))
	objects[acroObj] = fmt.Sprintf("<< /Fields [%s] >>", strings.Join(allFields, " "))

	widths := make([]string, 0, 95)
	for c := 32; c <= 126; c++ {
		widths = append(widths, fmt.Sprint(GlyphWidth))
	}
	objects[fontObj] = "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding " +
		"/FirstChar 32 /LastChar 126 /Widths [" + strings.Join(widths, " ") + "] >>"

	for i, p := range pages {
		var annots []string
		for j, f := range p.Fields {
			annots = append(annots, ref(nums[i].fields[j]))

			var dict strings.Builder
			dict.WriteString("<< /Type /Annot /Subtype /Widget /FT /Tx /F 4")
			if f.Name != "" {
				fmt.Fprintf(&dict, " /T (%s)", escape(f.Name))
			}
			if f.Tooltip != "" {
				fmt.Fprintf(&dict, " /TU (%s)", escape(f.Tooltip))
			}
			fmt.Fprintf(&dict, " /Rect [%s %s %s %s] /P %s >>",
				num(f.Rect[0]), num(f.Rect[1]), num(f.Rect[2]), num(f.Rect[3]), ref(nums[i].page))
			objects[nums[i].fields[j]] = dict.String()
		}

		var content strings.Builder
		for _, t := range p.Texts {
			size := t.Size
			if size == 0 {
				size = 12
			}
			fmt.Fprintf(&content, "BT /F1 %s Tf %s %s Td (%s) Tj ET\n", num(size), num(t.X), num(t.Y), escape(t.S))
		}
		stream := content.String()
		objects[nums[i].content] = fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", len(stream), stream)

		pageDict := fmt.Sprintf("<< /Type /Page /Parent %s /MediaBox [0 0 612 792] "+
			"/Resources << /Font << /F1 %s >> >> /Contents %s",
			ref(pagesObj), ref(fontObj), ref(nums[i].content))
		if len(annots) > 0 {
			pageDict += " /Annots [" + strings.Join(annots, " ") + "]"
		}
		objects[nums[i].page] = pageDict + " >>"
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n")

	offsets := make([]int, next)
	for n := 1; n < next; n++ {
		offsets[n] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", n, objects[n])
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", next)
	buf.WriteString("0000000000 65535 f \n")
	for n := 1; n < next; n++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[n])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root %s >>\nstartxref\n%d\n%%%%EOF\n", next, ref(catalogObj), xref)

	return buf.Bytes()
}

// TextWidth returns the width in points of s drawn at size with Build's font.
func TextWidth(s string, size float64) float64 {
	return float64(len(s)) * GlyphWidth / 1000 * size
}

func ref(n int) string {
	return fmt.Sprintf("%d 0 R", n)
}

func num(f float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.3f", f), "0"), ".")
}

func escape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`).Replace(s)
}
