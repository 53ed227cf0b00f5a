package catalog

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/securereq/securereq-engine/pkg/apperrors"
	"github.com/securereq/securereq-engine/pkg/models"
)

// rawControl accepts the field spellings seen in the wild for uploaded
// control lists.
type rawControl struct {
	ControlID   string `json:"control_id"`
	ID          string `json:"id"`
	Title       string `json:"title"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

func (r rawControl) normalize() models.Control {
	c := models.Control{
		ControlID:   r.ControlID,
		Title:       r.Title,
		Description: r.Description,
		Category:    r.Category,
	}
	if c.ControlID == "" {
		c.ControlID = r.ID
	}
	if c.Title == "" {
		c.Title = r.Name
	}
	if c.Category == "" {
		c.Category = "General"
	}
	return c
}

// ParseUpload parses an uploaded custom standard document into normalized
// controls. fileType is "json", "csv" or "pdf" (pdf operates on extracted
// text, not the binary). A parse failure rejects the entire upload; partial
// standards are never produced.
func ParseUpload(fileType string, content []byte) ([]models.Control, error) {
	switch strings.ToLower(fileType) {
	case "json":
		return ParseJSON(content)
	case "csv":
		return ParseCSV(content)
	case "pdf":
		return ParsePDFText(content)
	default:
		return nil, fmt.Errorf("%w: %q (use json, csv or pdf)", apperrors.ErrUnsupported, fileType)
	}
}

// ParseJSON accepts either a bare array of controls or an object with a
// "controls" key.
func ParseJSON(content []byte) ([]models.Control, error) {
	var list []rawControl
	if err := json.Unmarshal(content, &list); err == nil {
		return finishParse(list)
	}

	var wrapper struct {
		Controls []rawControl `json:"controls"`
	}
	if err := json.Unmarshal(content, &wrapper); err != nil {
		return nil, fmt.Errorf("%w: JSON must be an array of controls or an object with a 'controls' key", apperrors.ErrValidation)
	}
	if wrapper.Controls == nil {
		return nil, fmt.Errorf("%w: JSON object has no 'controls' key", apperrors.ErrValidation)
	}
	return finishParse(wrapper.Controls)
}

// ParseCSV expects a header row with control_id, title, description and
// category columns. A UTF-8 BOM is tolerated.
func ParseCSV(content []byte) ([]models.Control, error) {
	content = bytes.TrimPrefix(content, []byte{0xEF, 0xBB, 0xBF})

	reader := csv.NewReader(bytes.NewReader(content))
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: malformed CSV: %v", apperrors.ErrValidation, err)
	}
	if len(records) < 1 {
		return nil, fmt.Errorf("%w: CSV is empty", apperrors.ErrValidation)
	}

	col := make(map[string]int, len(records[0]))
	for i, h := range records[0] {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	idIdx, ok := col["control_id"]
	if !ok {
		return nil, fmt.Errorf("%w: CSV is missing the control_id column", apperrors.ErrValidation)
	}

	cell := func(row []string, name string) string {
		if i, ok := col[name]; ok && i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	list := make([]rawControl, 0, len(records)-1)
	for _, row := range records[1:] {
		if idIdx >= len(row) {
			continue
		}
		list = append(list, rawControl{
			ControlID:   strings.TrimSpace(row[idIdx]),
			Title:       cell(row, "title"),
			Description: cell(row, "description"),
			Category:    cell(row, "category"),
		})
	}
	return finishParse(list)
}

var sectionHeading = regexp.MustCompile(`^\d+\.`)

// splitSections breaks extracted text into sections at lines that open with a
// numbered heading ("1. ..."). Text before the first heading forms its own
// section.
func splitSections(text string) []string {
	var sections []string
	var current []string
	for _, line := range strings.Split(text, "\n") {
		if sectionHeading.MatchString(line) && len(current) > 0 {
			sections = append(sections, strings.Join(current, "\n"))
			current = current[:0]
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		sections = append(sections, strings.Join(current, "\n"))
	}
	return sections
}

// ParsePDFText applies a numbered-section heuristic to text extracted from a
// PDF. Binary PDF content is rejected; extraction happens upstream.
func ParsePDFText(content []byte) ([]models.Control, error) {
	if bytes.HasPrefix(content, []byte("%PDF")) {
		return nil, fmt.Errorf("%w: binary PDF content; upload the extracted text", apperrors.ErrValidation)
	}
	text := string(content)
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty document", apperrors.ErrValidation)
	}

	var list []rawControl
	for i, section := range splitSections(text) {
		section = strings.TrimSpace(section)
		if len(section) < 20 {
			continue
		}
		title, desc, _ := strings.Cut(section, "\n")
		list = append(list, rawControl{
			ControlID:   fmt.Sprintf("PDF-%03d", i+1),
			Title:       truncate(strings.TrimSpace(title), 200),
			Description: truncate(strings.TrimSpace(desc), 500),
			Category:    "General",
		})
	}
	if len(list) == 0 {
		list = append(list, rawControl{
			ControlID:   "PDF-001",
			Title:       "Imported PDF Standard",
			Description: truncate(text, 1000),
			Category:    "General",
		})
	}
	return finishParse(list)
}

func finishParse(list []rawControl) ([]models.Control, error) {
	if len(list) == 0 {
		return nil, fmt.Errorf("%w: document contains no controls", apperrors.ErrValidation)
	}
	controls := make([]models.Control, 0, len(list))
	for i, r := range list {
		c := r.normalize()
		if c.ControlID == "" {
			return nil, fmt.Errorf("%w: control %d has no control_id", apperrors.ErrValidation, i+1)
		}
		controls = append(controls, c)
	}
	return controls, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
