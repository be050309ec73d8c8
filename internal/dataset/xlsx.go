package dataset

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"path"
	"strconv"
	"strings"
)

type xlsxLoader struct{}

func (xlsxLoader) CanLoad(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".xlsx")
}

// Load reads one worksheet; its first row is the header. opt.SheetName wins over
// the 1-based opt.SheetIndex.
func (xlsxLoader) Load(name string, data []byte, opt Options) (*Dataset, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	wb := workbook{zr: zr}
	target, err := wb.sheetPath(name, opt)
	if err != nil {
		return nil, err
	}
	shared, err := wb.sharedStrings()
	if err != nil {
		return nil, err
	}
	raw, ok, err := wb.file(target)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("xlsx: worksheet %s missing", target)
	}

	var header []string
	var rows [][]Value
	err = eachRow(raw, func(cells []xlsxCell) bool {
		if header == nil {
			header = make([]string, len(cells))
			for i, c := range cells {
				header[i] = strings.TrimSpace(c.text(shared))
			}
			return true
		}
		if opt.MaxRows > 0 && len(rows) >= opt.MaxRows {
			return false
		}
		row := make([]Value, len(header))
		for j := 0; j < len(header) && j < len(cells); j++ {
			row[j] = cells[j].value(shared, opt)
		}
		rows = append(rows, row)
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("read worksheet %s: %w", target, err)
	}
	return New(name, header, rows), nil
}

// workbook resolves parts of an opened .xlsx package.
type workbook struct {
	zr *zip.Reader
}

func (w workbook) file(name string) ([]byte, bool, error) {
	for _, f := range w.zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, false, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()
		b, err := io.ReadAll(rc)
		if err != nil {
			return nil, false, fmt.Errorf("read %s: %w", name, err)
		}
		return b, true, nil
	}
	return nil, false, nil
}

// decode unmarshals an optional part; a missing part leaves v untouched.
func (w workbook) decode(name string, v any) error {
	b, ok, err := w.file(name)
	if err != nil || !ok {
		return err
	}
	if err := xml.Unmarshal(b, v); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

type workbookXML struct {
	Sheets []struct {
		Name    string `xml:"name,attr"`
		SheetID int    `xml:"sheetId,attr"`
		RelID   string `xml:"id,attr"`
	} `xml:"sheets>sheet"`
}

type relationshipsXML struct {
	Items []struct {
		ID     string `xml:"Id,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

// richText covers both plain <t> and run-formatted <r><t> strings.
type richText struct {
	T    string `xml:"t"`
	Runs []struct {
		T string `xml:"t"`
	} `xml:"r"`
}

func (r richText) String() string {
	if len(r.Runs) == 0 {
		return r.T
	}
	var b strings.Builder
	b.WriteString(r.T)
	for _, run := range r.Runs {
		b.WriteString(run.T)
	}
	return b.String()
}

// sheetPath maps the requested sheet to its zip entry.
func (w workbook) sheetPath(book string, opt Options) (string, error) {
	var wb workbookXML
	if err := w.decode("xl/workbook.xml", &wb); err != nil {
		return "", err
	}
	var rels relationshipsXML
	if err := w.decode("xl/_rels/workbook.xml.rels", &rels); err != nil {
		return "", err
	}
	targets := make(map[string]string, len(rels.Items))
	for _, r := range rels.Items {
		targets[r.ID] = r.Target
	}

	if opt.SheetName != "" {
		names := make([]string, 0, len(wb.Sheets))
		for _, s := range wb.Sheets {
			if strings.EqualFold(s.Name, opt.SheetName) {
				if t, ok := targets[s.RelID]; ok {
					return sheetEntry(t), nil
				}
			}
			names = append(names, s.Name)
		}
		return "", fmt.Errorf("sheet '%s' not found in workbook '%s' (available: %s)",
			opt.SheetName, book, strings.Join(names, ", "))
	}
	idx := opt.SheetIndex
	if idx <= 0 {
		idx = 1
	}
	for _, s := range wb.Sheets {
		if s.SheetID == idx {
			if t, ok := targets[s.RelID]; ok {
				return sheetEntry(t), nil
			}
		}
	}
	return fmt.Sprintf("xl/worksheets/sheet%d.xml", idx), nil
}

// sheetEntry turns a relationship target ("worksheets/sheet1.xml" or
// "/xl/worksheets/sheet1.xml") into a zip entry name.
func sheetEntry(target string) string {
	target = strings.TrimPrefix(target, "/")
	if strings.HasPrefix(target, "xl/") {
		return target
	}
	return path.Join("xl", target)
}

func (w workbook) sharedStrings() ([]string, error) {
	var sst struct {
		Items []richText `xml:"si"`
	}
	if err := w.decode("xl/sharedStrings.xml", &sst); err != nil {
		return nil, err
	}
	out := make([]string, len(sst.Items))
	for i, si := range sst.Items {
		out[i] = si.String()
	}
	return out, nil
}

type xlsxCell struct {
	Ref    string   `xml:"r,attr"`
	Type   string   `xml:"t,attr"`
	V      string   `xml:"v"`
	Inline richText `xml:"is"`
}

// text is the cell's string content with shared strings resolved.
func (c xlsxCell) text(shared []string) string {
	switch c.Type {
	case "inlineStr":
		return c.Inline.String()
	case "s":
		i, err := strconv.Atoi(strings.TrimSpace(c.V))
		if err != nil || i < 0 || i >= len(shared) {
			return ""
		}
		return shared[i]
	default:
		return c.V
	}
}

func (c xlsxCell) value(shared []string, opt Options) Value {
	switch c.Type {
	case "s", "str", "inlineStr":
		return parseTextCell(c.text(shared), opt)
	case "b":
		return Bool(strings.TrimSpace(c.V) == "1")
	case "e":
		return Null()
	}
	raw := strings.TrimSpace(c.V)
	if raw == "" {
		return Null()
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return Number(f)
	}
	return parseCell(raw, opt)
}

// eachRow streams <row> elements, placing cells at the column named by their
// reference so gaps stay empty. fn returns false to stop early.
func eachRow(sheet []byte, fn func([]xlsxCell) bool) error {
	dec := xml.NewDecoder(bytes.NewReader(sheet))
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "row" {
			continue
		}
		var row struct {
			Cells []xlsxCell `xml:"c"`
		}
		if err := dec.DecodeElement(&row, &se); err != nil {
			return err
		}
		var cells []xlsxCell
		for _, c := range row.Cells {
			col := len(cells)
			if c.Ref != "" {
				if i := colIndexFromRef(c.Ref); i >= 0 {
					col = i
				}
			}
			if col >= maxXLSXColumns {
				return fmt.Errorf("cell %q is beyond column XFD", c.Ref)
			}
			for len(cells) <= col {
				cells = append(cells, xlsxCell{})
			}
			cells[col] = c
		}
		if !fn(cells) {
			return nil
		}
	}
}

// maxXLSXColumns is the sheet width limit of the format (A to XFD).
const maxXLSXColumns = 16384

// colIndexFromRef maps "C12" to 2. It returns -1 when ref has no column letters
// and maxXLSXColumns once the letters pass XFD.
func colIndexFromRef(ref string) int {
	n := 0
	for _, r := range ref {
		switch {
		case r >= 'A' && r <= 'Z':
			n = n*26 + int(r-'A') + 1
		case r >= 'a' && r <= 'z':
			n = n*26 + int(r-'a') + 1
		default:
			return n - 1
		}
		if n > maxXLSXColumns {
			return maxXLSXColumns
		}
	}
	return n - 1
}
