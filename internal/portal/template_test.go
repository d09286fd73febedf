package portal

import (
	"bytes"
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/mind-engage/mindengage-cie/internal/scoring"
)

func openTemplate(t *testing.T, tpl *Template) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(tpl.Body))
	if err != nil {
		t.Fatalf("open template: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestGenerateTemplateLayout(t *testing.T) {
	fx := newFixture(t)
	fx.roster(t, "U1", "U2")
	subID := fx.subject(t, "DBMS", "CS51", 3)

	tpl, err := fx.svc.GenerateTemplate(context.Background(), subID)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if tpl.Filename != "DBMS_template.xlsx" {
		t.Fatalf("filename = %q", tpl.Filename)
	}
	f := openTemplate(t, tpl)
	if f.GetSheetName(f.GetActiveSheetIndex()) != "Template" {
		t.Fatalf("sheets = %v", f.GetSheetList())
	}

	rows, err := f.GetRows("Template")
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	want := "SL No|USN|Name|IA1|IA2|IA3|ASG1|ASG2|Total CIE (50)"
	if got := strings.Join(rows[0], "|"); got != want {
		t.Fatalf("header = %s", got)
	}
	if rows[1][0] != "1" || rows[1][1] != "U1" || rows[2][1] != "U2" {
		t.Fatalf("student rows = %v", rows[1:])
	}

	formula, err := f.GetCellFormula("Template", "I3")
	if err != nil || formula != scoring.Formula(3, 3) {
		t.Fatalf("I3 formula = %q (%v)", formula, err)
	}
	for col, want := range map[string]float64{"A": 6, "B": 12, "C": 28, "D": 8, "I": 12} {
		if w, _ := f.GetColWidth("Template", col); w != want {
			t.Fatalf("width %s = %v, want %v", col, w, want)
		}
	}
	styleID, _ := f.GetCellStyle("Template", "C2")
	style, err := f.GetStyle(styleID)
	if err != nil || style.Alignment == nil || !style.Alignment.WrapText {
		t.Fatalf("name cell not wrapped: %+v %v", style, err)
	}
}

func TestGenerateTemplateLabColumns(t *testing.T) {
	fx := newFixture(t)
	fx.roster(t, "U1")
	subID := fx.subject(t, "Physics", "PH1", 4)

	tpl, err := fx.svc.GenerateTemplate(context.Background(), subID)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	f := openTemplate(t, tpl)
	rows, _ := f.GetRows("Template")
	if got := strings.Join(rows[0], "|"); !strings.HasSuffix(got, "ASG2|Lab CIE|Lab Test|Total CIE (50)") {
		t.Fatalf("header = %s", got)
	}
	if w, _ := f.GetColWidth("Template", "I"); w != 10 {
		t.Fatalf("lab width = %v", w)
	}

	// filled template evaluates to the server total
	for cell, v := range map[string]float64{"D2": 30, "E2": 35, "F2": 20, "G2": 20, "H2": 22, "I2": 12, "J2": 8} {
		f.SetCellValue("Template", cell, v)
	}
	raw, err := f.CalcCellValue("Template", "K2")
	if err != nil {
		t.Fatalf("calc: %v", err)
	}
	if got, _ := strconv.ParseFloat(raw, 64); got != 41 {
		t.Fatalf("K2 = %q, want 41", raw)
	}
}

func TestTemplateFilledAndUploadedRoundTrip(t *testing.T) {
	fx := newFixture(t)
	fx.roster(t, "U1", "U2")
	subID := fx.subject(t, "Networks", "CS53", 3)

	tpl, err := fx.svc.GenerateTemplate(context.Background(), subID)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	f := openTemplate(t, tpl)
	for cell, v := range map[string]float64{"D2": 30, "E2": 35, "F2": 20, "G2": 20, "H2": 22, "D3": 40} {
		f.SetCellValue("Template", cell, v)
	}
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}

	sum := fx.upload(t, subID, buf.Bytes(), "", "")
	if sum.SavedRows != 2 || len(sum.Errors) != 0 {
		t.Fatalf("summary = %+v", sum)
	}
	marks, _ := fx.svc.GetCourseMarks(context.Background(), sum.CourseID)
	if marks.Marks[0].Total.Float64 != 42 || marks.Marks[1].Total.Float64 != 13 {
		t.Fatalf("totals = %v, %v", marks.Marks[0].Total, marks.Marks[1].Total)
	}
}

func TestGenerateTemplateFollowsCourseCredits(t *testing.T) {
	fx := newFixture(t)
	fx.roster(t, "U1")
	subID := fx.subject(t, "Chem", "CH1", 3)
	fx.upload(t, subID, workbook(t, [][]any{header3}), "", "4")

	tpl, err := fx.svc.GenerateTemplate(context.Background(), subID)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if tpl.Credits != 4 {
		t.Fatalf("credits = %d, want course credits 4", tpl.Credits)
	}
}

func TestGenerateTemplateUnknownSubject(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.svc.GenerateTemplate(context.Background(), 42)
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("err = %v", err)
	}
}
