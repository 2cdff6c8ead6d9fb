package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// Certificate carries the printed fields of a completion certificate.
type Certificate struct {
	StudentName string
	StudentCPF  string
	CourseTitle string
	Workload    string
	IssuedOn    string
	Code        string
}

// CertificateRenderer draws completion certificates on landscape A4.
type CertificateRenderer struct{}

// NewCertificateRenderer constructs a CertificateRenderer.
func NewCertificateRenderer() *CertificateRenderer {
	return &CertificateRenderer{}
}

// Render produces the certificate PDF.
func (r *CertificateRenderer) Render(cert Certificate) ([]byte, error) {
	if cert.StudentName == "" || cert.CourseTitle == "" {
		return nil, fmt.Errorf("certificate requires student name and course title")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	w, h := pdf.GetPageSize()

	pdf.SetDrawColor(212, 175, 55)
	pdf.SetLineWidth(2)
	pdf.Rect(8, 8, w-16, h-16, "D")
	pdf.SetLineWidth(0.3)
	pdf.Rect(12, 12, w-24, h-24, "D")

	pdf.SetY(40)
	pdf.SetFont("Times", "B", 30)
	pdf.SetTextColor(30, 41, 59)
	pdf.CellFormat(0, 14, tr("CERTIFICADO DE CONCLUSÃO"), "", 1, "C", false, 0, "")

	pdf.Ln(8)
	pdf.SetFont("Arial", "", 14)
	pdf.SetTextColor(71, 85, 105)
	pdf.CellFormat(0, 8, tr("Certificamos para os devidos fins que"), "", 1, "C", false, 0, "")

	pdf.Ln(4)
	pdf.SetFont("Times", "BI", 32)
	pdf.SetTextColor(0, 76, 76)
	pdf.CellFormat(0, 16, tr(cert.StudentName), "", 1, "C", false, 0, "")

	pdf.Ln(4)
	pdf.SetFont("Arial", "", 13)
	pdf.SetTextColor(51, 65, 85)
	pdf.CellFormat(0, 8, tr(fmt.Sprintf("portador(a) do CPF %s, concluiu com êxito o treinamento", cert.StudentCPF)), "", 1, "C", false, 0, "")
	pdf.SetFont("Times", "B", 20)
	pdf.SetTextColor(15, 23, 42)
	pdf.CellFormat(0, 12, tr(fmt.Sprintf("\"%s\"", cert.CourseTitle)), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 13)
	pdf.SetTextColor(51, 65, 85)
	pdf.CellFormat(0, 8, tr(fmt.Sprintf("com carga horária total de %s.", cert.Workload)), "", 1, "C", false, 0, "")

	footerY := h - 45
	pdf.SetXY(40, footerY)
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(70, 6, cert.IssuedOn, "", 2, "C", false, 0, "")
	pdf.Line(40, footerY+8, 110, footerY+8)
	pdf.SetFont("Arial", "", 8)
	pdf.SetXY(40, footerY+10)
	pdf.CellFormat(70, 5, tr("DATA DE EMISSÃO"), "", 0, "C", false, 0, "")

	pdf.SetXY(w-110, footerY)
	pdf.SetFont("Courier", "B", 11)
	pdf.CellFormat(70, 6, cert.Code, "", 2, "C", false, 0, "")
	pdf.Line(w-110, footerY+8, w-40, footerY+8)
	pdf.SetFont("Arial", "", 8)
	pdf.SetXY(w-110, footerY+10)
	pdf.CellFormat(70, 5, tr("CÓDIGO DE VALIDAÇÃO"), "", 0, "C", false, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render certificate: %w", err)
	}
	return buf.Bytes(), nil
}
