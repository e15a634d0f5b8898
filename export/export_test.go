package export

import (
	"bytes"
	"encoding/csv"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/KunalKalawant/Engineering-Drawing/annotate"
	"github.com/KunalKalawant/Engineering-Drawing/coords"
)

func sampleRecords() []annotate.Record {
	return []annotate.Record{
		{Page: 0, Balloon: 1, FieldName: "Diameter", Text: "12.5", Confidence: 0.95, Bounds: coords.Rect{X: 10, Y: 10, Width: 40, Height: 10}},
		{Page: 0, Balloon: 2, FieldName: "SerialNo", Text: "A-100", Confidence: 1, ManualOverride: true},
		{Page: 1, Balloon: 3, FieldName: "", Text: "M6", Confidence: 0.72},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleRecords()); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("reading back: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("got %d rows, want 4", len(rows))
	}
	if got := strings.Join(rows[0], ","); got != "page_index,balloon,field_name,text,confidence,manual_override" {
		t.Fatalf("header = %q", got)
	}
	if got := strings.Join(rows[1], ","); got != "0,1,Diameter,12.5,0.95,false" {
		t.Fatalf("row 1 = %q", got)
	}
	if got := strings.Join(rows[2], ","); got != "0,2,SerialNo,A-100,1.00,true" {
		t.Fatalf("row 2 = %q", got)
	}
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "page_index,balloon,field_name,text,confidence,manual_override" {
		t.Fatalf("output = %q", got)
	}
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	if err := WriteXLSX(path, sampleRecords()); err != nil {
		t.Fatalf("WriteXLSX() error = %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("opening workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Annotations")
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("got %d rows, want 4", len(rows))
	}
	if rows[0][0] != "page_index" || rows[0][5] != "manual_override" {
		t.Fatalf("header = %v", rows[0])
	}
	if rows[1][2] != "Diameter" || rows[1][3] != "12.5" {
		t.Fatalf("row 1 = %v", rows[1])
	}
	if rows[2][5] != "TRUE" {
		t.Fatalf("manual_override cell = %q", rows[2][5])
	}
}

func TestRenderTable(t *testing.T) {
	var buf bytes.Buffer
	RenderTable(&buf, sampleRecords())
	out := buf.String()
	for _, want := range []string{"PAGE_INDEX", "Diameter", "A-100", "M6"} {
		if !strings.Contains(out, want) {
			t.Fatalf("table output missing %q:\n%s", want, out)
		}
	}
}
