package dataset

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"
)

const (
	wbXML = `<?xml version="1.0" encoding="UTF-8"?>
<workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
<sheets><sheet name="Summary" sheetId="1" r:id="rId1"/><sheet name="Data" sheetId="2" r:id="rId2"/></sheets>
</workbook>`
	relsXML = `<?xml version="1.0" encoding="UTF-8"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="worksheet" Target="worksheets/sheet1.xml"/>
<Relationship Id="rId2" Type="worksheet" Target="/xl/worksheets/sheet2.xml"/>
</Relationships>`
	sharedXML = `<?xml version="1.0" encoding="UTF-8"?>
<sst><si><t>year</t></si><si><t>region</t></si><si><t>amount</t></si><si><t>north</t></si><si><t>south</t></si></sst>`
	sheet1XML = `<?xml version="1.0" encoding="UTF-8"?>
<worksheet><sheetData><row r="1"><c r="A1" t="inlineStr"><is><t>only</t></is></c></row></sheetData></worksheet>`
	sheet2XML = `<?xml version="1.0" encoding="UTF-8"?>
<worksheet><sheetData>
<row r="1"><c r="A1" t="s"><v>0</v></c><c r="B1" t="s"><v>1</v></c><c r="C1" t="s"><v>2</v></c><c r="D1" t="inlineStr"><is><t>flag</t></is></c></row>
<row r="2"><c r="A2"><v>2020</v></c><c r="B2" t="s"><v>3</v></c><c r="C2"><v>100.5</v></c><c r="D2" t="b"><v>1</v></c></row>
<row r="3"><c r="A3"><v>2021</v></c><c r="C3"><v>7</v></c><c r="D3" t="e"><v>#N/A</v></c></row>
</sheetData></worksheet>`
)

func buildXLSX(t *testing.T) []byte {
	t.Helper()
	return zipParts(t, map[string]string{
		"xl/workbook.xml":            wbXML,
		"xl/_rels/workbook.xml.rels": relsXML,
		"xl/sharedStrings.xml":       sharedXML,
		"xl/worksheets/sheet1.xml":   sheet1XML,
		"xl/worksheets/sheet2.xml":   sheet2XML,
	})
}

func zipParts(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create: %v", err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("zip write: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func TestLoadXLSXBySheetName(t *testing.T) {
	opt := DefaultOptions()
	opt.SheetName = "data"
	ds, err := LoadBytes("book.xlsx", buildXLSX(t), opt)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := []string{"year", "region", "amount", "flag"}
	got := ds.Columns()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("columns = %v, want %v", got, want)
	}
	if ds.Len() != 2 {
		t.Fatalf("rows = %d", ds.Len())
	}
	if v := ds.At(0, 0); v.Kind != KindNumber || v.Num != 2020 {
		t.Errorf("year = %+v", v)
	}
	if v := ds.At(0, 1); v.Kind != KindText || v.Str != "north" {
		t.Errorf("region = %+v", v)
	}
	if v := ds.At(0, 3); v.Kind != KindBool || !v.Bool {
		t.Errorf("flag = %+v", v)
	}
	if !ds.At(1, 1).IsNull() {
		t.Errorf("expected missing region cell to be null")
	}
	if !ds.At(1, 3).IsNull() {
		t.Errorf("expected error cell to be null")
	}
}

func TestLoadXLSXDefaultsToFirstSheet(t *testing.T) {
	ds, err := LoadBytes("book.xlsx", buildXLSX(t), DefaultOptions())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cols := ds.Columns(); len(cols) != 1 || cols[0] != "only" {
		t.Fatalf("columns = %v", cols)
	}
}

func TestLoadXLSXUnknownSheet(t *testing.T) {
	opt := DefaultOptions()
	opt.SheetName = "Missing"
	_, err := LoadBytes("book.xlsx", buildXLSX(t), opt)
	if err == nil || !strings.Contains(err.Error(), "Summary, Data") {
		t.Fatalf("expected sheet-not-found error listing sheets, got %v", err)
	}
}

func TestColIndexFromRef(t *testing.T) {
	cases := map[string]int{
		"A1":       0,
		"C12":      2,
		"Z3":       25,
		"AA10":     26,
		"ab2":      27,
		"XFD1":     16383,
		"XFE1":     maxXLSXColumns,
		"ZZZZZZZ1": maxXLSXColumns,
	}
	for ref, want := range cases {
		if got := colIndexFromRef(ref); got != want {
			t.Errorf("colIndexFromRef(%q) = %d, want %d", ref, got, want)
		}
	}
}

func TestLoadXLSXRejectsColumnsPastXFD(t *testing.T) {
	for _, ref := range []string{"XFE1", "ZZZZ1", "ZZZZZZZZZZZZZZ1"} {
		sheet := `<worksheet><sheetData><row r="1"><c r="A1" t="inlineStr"><is><t>a</t></is></c>` +
			`<c r="` + ref + `" t="inlineStr"><is><t>far</t></is></c></row></sheetData></worksheet>`
		data := zipParts(t, map[string]string{"xl/worksheets/sheet1.xml": sheet})
		_, err := LoadBytes("wide.xlsx", data, DefaultOptions())
		if err == nil || !strings.Contains(err.Error(), "XFD") {
			t.Errorf("%s: expected column limit error, got %v", ref, err)
		}
	}

	sheet := `<worksheet><sheetData><row r="1"><c r="A1" t="inlineStr"><is><t>a</t></is></c>` +
		`<c r="XFD1" t="inlineStr"><is><t>last</t></is></c></row></sheetData></worksheet>`
	ds, err := LoadBytes("wide.xlsx", zipParts(t, map[string]string{"xl/worksheets/sheet1.xml": sheet}), DefaultOptions())
	if err != nil {
		t.Fatalf("XFD is the last valid column: %v", err)
	}
	if ds.NumColumns() != maxXLSXColumns {
		t.Fatalf("columns = %d", ds.NumColumns())
	}
}
