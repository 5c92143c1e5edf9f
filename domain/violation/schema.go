package violation

import (
	"fmt"
	"strings"
	"unicode"
)

// Canonical names of the columns a record must carry to survive cleaning.
// A row missing any of these is skipped, never patched.
const (
	ColSummonsNumber = "summons_number"
	ColIssueDate     = "issue_date"
	ColViolationCode = "violation_code"
	ColFineAmount    = "fine_amount"
	ColIssuingAgency = "issuing_agency"
	ColRegistration  = "registration_state"
	ColVehicleMake   = "vehicle_make"
	ColStreetName    = "street_name"
)

// RequiredColumns are the fields a cleaned record cannot be missing.
func RequiredColumns() []string {
	return []string{ColSummonsNumber, ColIssueDate, ColViolationCode}
}

// NormalizeColumn converts a raw header cell to its canonical snake_case
// name: trimmed, lowercased, non-alphanumeric runs collapsed to a single
// underscore. Deterministic so two passes over the same file agree.
func NormalizeColumn(name string) string {
	name = strings.TrimSpace(name)
	var b strings.Builder
	b.Grow(len(name))
	lastUnderscore := true // suppress leading underscore
	for _, r := range name {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

// Column describes one input column after profiling decisions are made
type Column struct {
	Name      string    // canonical name
	Original  string    // header cell as read from the file
	Type      ValueType // coercion target
	Required  bool
	Dropped   bool // true when the null ratio exceeded the run threshold
	NullRatio float64
}

// Schema is the per-run column layout: every input column in file order,
// with a separate index over the kept (non-dropped) columns that record
// values align with.
type Schema struct {
	Columns []Column

	keptIndex map[string]int
	keptNames []string
}

// BuildSchema normalizes the header row and applies profiling decisions.
// Duplicate canonical names get a numeric suffix (_2, _3, ...) in file
// order. Columns whose null ratio exceeds nullRatioThreshold are marked
// dropped unless required.
func BuildSchema(headers []string, types map[string]ValueType, nullRatios map[string]float64, nullRatioThreshold float64) (*Schema, error) {
	if len(headers) == 0 {
		return nil, fmt.Errorf("header row is empty")
	}

	required := make(map[string]bool)
	for _, name := range RequiredColumns() {
		required[name] = true
	}

	seen := make(map[string]int, len(headers))
	columns := make([]Column, 0, len(headers))
	for _, raw := range headers {
		name := NormalizeColumn(raw)
		if name == "" {
			name = "column"
		}
		seen[name]++
		if n := seen[name]; n > 1 {
			name = fmt.Sprintf("%s_%d", name, n)
		}

		col := Column{Name: name, Original: raw, Type: ValueTypeString}
		if t, ok := types[name]; ok {
			col.Type = t
		}
		if ratio, ok := nullRatios[name]; ok {
			col.NullRatio = ratio
		}
		col.Required = required[name]
		if col.NullRatio > nullRatioThreshold && !col.Required {
			col.Dropped = true
		}
		columns = append(columns, col)
	}

	s := &Schema{Columns: columns}
	s.reindex()

	for _, name := range RequiredColumns() {
		if _, ok := s.keptIndex[name]; !ok {
			return nil, fmt.Errorf("required column %q not present in header", name)
		}
	}
	return s, nil
}

func (s *Schema) reindex() {
	s.keptIndex = make(map[string]int)
	s.keptNames = s.keptNames[:0]
	for _, col := range s.Columns {
		if col.Dropped {
			continue
		}
		s.keptIndex[col.Name] = len(s.keptNames)
		s.keptNames = append(s.keptNames, col.Name)
	}
}

// KeptColumns returns the canonical names of all non-dropped columns,
// in file order. Record values align with this slice.
func (s *Schema) KeptColumns() []string {
	return s.keptNames
}

// KeptIndex returns the position of a kept column within record values
func (s *Schema) KeptIndex(name string) (int, bool) {
	idx, ok := s.keptIndex[name]
	return idx, ok
}

// DroppedColumns returns the canonical names of columns dropped for
// excess null ratio
func (s *Schema) DroppedColumns() []string {
	var dropped []string
	for _, col := range s.Columns {
		if col.Dropped {
			dropped = append(dropped, col.Name)
		}
	}
	return dropped
}

// ColumnType returns the coercion target for a canonical column name
func (s *Schema) ColumnType(name string) ValueType {
	for _, col := range s.Columns {
		if col.Name == name {
			return col.Type
		}
	}
	return ValueTypeString
}
