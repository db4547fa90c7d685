package reporting

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

var fixedTime = time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatText, false},
		{"txt", FormatText, false},
		{"PDF", FormatPDF, false},
		{" docx ", FormatDOCX, false},
		{"xlsx", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if _, err := ParseFormat("odt"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestBlocks(t *testing.T) {
	body := "REPORT TITLE\n============\n\nGenerated on: today\n\nSECTION\n-------\n- first item\n* second item\n1. numbered stays a paragraph\n"
	got := blocks(body)

	want := []block{
		{blockHeading, "REPORT TITLE"},
		{blockParagraph, "Generated on: today"},
		{blockHeading, "SECTION"},
		{blockBullet, "first item"},
		{blockBullet, "second item"},
		{blockParagraph, "1. numbered stays a paragraph"},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d blocks, got %d: %+v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("block %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func sampleCTScan() CTScanReport {
	return CTScanReport{
		Patient:          Patient{Username: "testuser", FirstName: "Test", LastName: "User"},
		FileName:         "scan.png",
		FileType:         "image/png",
		FileSize:         2048,
		RiskLevel:        "High",
		FinalPrediction:  "Lung Cancer Detected",
		CancerConfidence: 0.8,
		NormalConfidence: 0.2,
		ConfidenceDetail: "High confidence in detection - Strong indicators present",
		Recommendations:  []string{"Consult an oncologist immediately", "Schedule a biopsy"},
		GeneratedAt:      fixedTime,
	}
}

func TestCTScanReport_Document(t *testing.T) {
	doc := sampleCTScan().Document()
	for _, want := range []string{
		"LUNG CANCER DETECTION REPORT - CT-SCAN ANALYSIS",
		"Generated on: 2024-05-06 07:08:09",
		"Username: testuser",
		"File Size: 2048 bytes",
		"Risk Level: High",
		"Cancer Confidence: 80.00%",
		"Normal Confidence: 20.00%",
		"1. Consult an oncologist immediately",
		"2. Schedule a biopsy",
		"May 06, 2024",
	} {
		if !strings.Contains(doc.Body, want) {
			t.Errorf("report missing %q", want)
		}
	}
}

func TestHealthReport_Document(t *testing.T) {
	doc := HealthReport{
		Patient:         Patient{Username: "u"},
		Parameters:      []Parameter{{"Age", "44"}, {"Smoking", ""}},
		RiskLevel:       "Medium",
		Prediction:      "The person has a Medium risk of Lung Cancer",
		Interpretation:  "MODERATE RISK: Follow-up with healthcare provider advised",
		Recommendations: []string{"Review and reduce risk factors"},
		GeneratedAt:     fixedTime,
	}.Document()

	for _, want := range []string{
		"Name: N/A N/A",
		"- Age: 44",
		"- Smoking: N/A",
		"Risk Level: Medium",
		"MODERATE RISK",
		"1. Review and reduce risk factors",
		"Features: 2 health parameters",
	} {
		if !strings.Contains(doc.Body, want) {
			t.Errorf("report missing %q", want)
		}
	}
}

func TestAppointmentConfirmation_Document(t *testing.T) {
	doc := AppointmentConfirmation{
		AppointmentID: "APT20240506070809-ab12",
		Date:          "2024-05-10",
		Time:          "10:00 AM",
		Status:        "Confirmed",
		Patient:       Patient{FirstName: "Jane", LastName: "Roe", Phone: "555"},
		Doctor:        Doctor{Name: "Dr. Sarah Chen", Phone: "+1-555-0101", Fees: "₹1500"},
		Reason:        "Second Opinion",
		Symptoms:      "cough",
		GeneratedAt:   fixedTime,
	}.Document()

	for _, want := range []string{
		"Appointment ID: APT20240506070809-ab12",
		"Email: Not provided",
		"Previous Diagnosis: Not specified",
		"Consultation Fees: ₹1500",
		"Contact our office for any changes: +1-555-0101",
	} {
		if !strings.Contains(doc.Body, want) {
			t.Errorf("confirmation missing %q", want)
		}
	}
}

func TestRender_Text(t *testing.T) {
	r, err := Render(sampleCTScan().Document(), FormatText, "Lung_Cancer_CTScan_Report_x")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if r.FileName != "Lung_Cancer_CTScan_Report_x.txt" {
		t.Errorf("unexpected file name %s", r.FileName)
	}
	if !strings.HasPrefix(r.ContentType, "text/plain") {
		t.Errorf("unexpected content type %s", r.ContentType)
	}
}

func TestRender_PDF(t *testing.T) {
	doc := AppointmentConfirmation{Doctor: Doctor{Fees: "₹2500"}, GeneratedAt: fixedTime}.Document()
	r, err := Render(doc, FormatPDF, "Appointment_Confirmation_APT1")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(r.Data, []byte("%PDF-")) {
		t.Error("expected PDF header")
	}
	if r.ContentType != "application/pdf" {
		t.Errorf("unexpected content type %s", r.ContentType)
	}
}

func TestRender_DOCX(t *testing.T) {
	doc := Document{Title: "T", Body: "HEADING\n-------\nA & B <c>\n"}
	r, err := Render(doc, FormatDOCX, "report")
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(r.Data), int64(len(r.Data)))
	if err != nil {
		t.Fatalf("open docx: %v", err)
	}
	var documentXML string
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open part: %v", err)
		}
		b, _ := io.ReadAll(rc)
		rc.Close()
		documentXML = string(b)
	}
	if documentXML == "" {
		t.Fatal("word/document.xml missing")
	}
	if !strings.Contains(documentXML, "A &amp; B &lt;c&gt;") {
		t.Errorf("expected escaped text, got %s", documentXML)
	}
	if !strings.Contains(documentXML, "HEADING") {
		t.Error("expected heading text")
	}
	if !strings.Contains(documentXML, `<w:jc w:val="center">`) && !strings.Contains(documentXML, `<w:jc w:val="center"/>`) {
		t.Error("expected a centered title paragraph")
	}
	if !strings.Contains(documentXML, "<w:b>") && !strings.Contains(documentXML, "<w:b/>") {
		t.Error("expected bold runs")
	}
	if !strings.Contains(documentXML, `w:val="32"`) {
		t.Error("expected the title font size")
	}
	for _, part := range []string{"[Content_Types].xml", "word/styles.xml"} {
		found := false
		for _, f := range zr.File {
			if f.Name == part {
				found = true
			}
		}
		if !found {
			t.Errorf("expected package part %s", part)
		}
	}
}

func TestRenderCSV(t *testing.T) {
	r, err := RenderCSV("users", []string{"Username", "Email"}, [][]string{
		{"alice", "a@example.com"},
		{"bob, jr", ""},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	records, err := csv.NewReader(bytes.NewReader(r.Data)).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(records) != 3 || records[2][0] != "bob, jr" {
		t.Errorf("unexpected records %v", records)
	}

	if _, err := RenderCSV("bad", []string{"a", "b"}, [][]string{{"only-one"}}); err == nil {
		t.Error("expected error for short row")
	}
}

func TestAttach(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := Attach(c, &Rendered{FileName: "a.txt", ContentType: "text/plain; charset=utf-8", Data: []byte("hi")})
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if got := rec.Header().Get(echo.HeaderContentDisposition); got != `attachment; filename="a.txt"` {
		t.Errorf("unexpected disposition %q", got)
	}
	if rec.Body.String() != "hi" {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
}
