package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterOrdersColumnsByHeader(t *testing.T) {
	data := Dataset{
		Headers: []string{"Nome", "Email"},
		Rows: []map[string]string{
			{"Email": "ana@example.com", "Nome": "Ana, Maria"},
			{"Nome": "João"},
		},
	}
	out, err := NewCSVExporter(false).Render(data)
	require.NoError(t, err)
	assert.Equal(t, "Nome,Email\n\"Ana, Maria\",ana@example.com\nJoão,\n", string(out))
}

func TestCSVExporterWritesBOM(t *testing.T) {
	out, err := NewCSVExporter(true).Render(Dataset{Headers: []string{"Nome"}})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, utf8BOM))
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter(false).Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRendersReport(t *testing.T) {
	report := Report{
		Title:       "Relatório Financeiro - BioClass",
		GeneratedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		Summary: []SummaryItem{
			{Label: "Receita Realizada", Value: "R$ 500,00"},
			{Label: "Despesas Pagas", Value: "R$ 120,00"},
			{Label: "Saldo em Caixa", Value: "R$ 380,00"},
		},
		FilterLine: "Filtros: Todos os status",
		Table: Dataset{
			Headers: []string{"Data", "Aluno", "Descrição", "Valor", "Status"},
			Rows: []map[string]string{{
				"Data": "01/03/2024", "Aluno": "Ana", "Descrição": strings.Repeat("Matrícula ", 20), "Valor": "R$ 200,00", "Status": "Pago",
			}},
		},
	}
	out, err := NewPDFExporter(nil).Render(report)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestPDFExporterRequiresHeaders(t *testing.T) {
	_, err := NewPDFExporter(nil).Render(Report{Title: "x"})
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "curto", truncate("curto", 40))
	long := strings.Repeat("a", 50)
	got := truncate(long, 16)
	assert.Len(t, []rune(got), 10)
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestCertificateRenderer(t *testing.T) {
	out, err := NewCertificateRenderer().Render(Certificate{
		StudentName: "Ana Souza",
		StudentCPF:  "000.000.000-00",
		CourseTitle: "Biologia Celular",
		Workload:    "40h",
		IssuedOn:    "01/03/2024",
		Code:        "1A2B3C4D",
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))

	_, err = NewCertificateRenderer().Render(Certificate{})
	assert.Error(t, err)
}
