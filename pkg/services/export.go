package services

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/securereq/securereq-engine/pkg/models"
)

// ExportCSV flattens an analysis into one CSV document: abuse cases, then
// security requirements, then STRIDE threats, each tagged with its section.
func ExportCSV(analysis *models.Analysis) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	rows := [][]string{
		{"Section", "ID", "Title/Threat", "Description", "Severity/Priority", "Category"},
	}
	for _, ac := range analysis.AbuseCases {
		rows = append(rows, []string{"Abuse Case", ac.ID, ac.Threat, ac.Description, string(ac.Impact), string(ac.StrideCategory)})
	}
	for _, req := range analysis.SecurityRequirements {
		rows = append(rows, []string{"Requirement", req.ID, req.Text, req.Details, string(req.Priority), req.Category})
	}
	for _, st := range analysis.StrideThreats {
		rows = append(rows, []string{"STRIDE Threat", "", st.Threat, st.Description, string(st.RiskLevel), string(st.Category)})
	}

	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("failed to write export csv: %w", err)
	}
	return buf.Bytes(), nil
}
