package columns

import (
	"fmt"
	"slices"
	"strings"
)

// Logical field names.
const (
	FieldName      = "name"
	FieldLatitude  = "latitude"
	FieldLongitude = "longitude"
	FieldPincode   = "pincode"
	FieldWeight    = "weight"
)

// Dataset names used in diagnostics and alias files.
const (
	DatasetWorkshops = "workshops"
	DatasetDemand    = "demand"
)

// Field is a logical field and the header spellings that may carry it.
type Field struct {
	Name       string
	Label      string
	Candidates []string
	Required   bool
}

// Schema is the ordered set of fields a dataset needs.
type Schema struct {
	Dataset string
	Fields  []Field
}

// WorkshopSchema describes the service-location sheet.
func WorkshopSchema() Schema {
	return Schema{
		Dataset: DatasetWorkshops,
		Fields: []Field{
			{
				Name:  FieldName,
				Label: "workshop name",
				// "Mabindra" is a real misspelling seen in source sheets.
				Candidates: []string{"Mabindra Workshop Location", "Mahindra Workshop Location", "Workshop", "workshop"},
				Required:   true,
			},
			{Name: FieldLatitude, Label: "workshop lat", Candidates: []string{"Latitude", "Lat"}, Required: true},
			{Name: FieldLongitude, Label: "workshop lon", Candidates: []string{"Longitude", "Lon", "Lng"}, Required: true},
			{Name: FieldPincode, Label: "workshop pincode", Candidates: []string{"Pincode", "Pin Code", "pincode"}},
		},
	}
}

// DemandSchema describes the demand projection sheet.
func DemandSchema() Schema {
	return Schema{
		Dataset: DatasetDemand,
		Fields: []Field{
			{Name: FieldPincode, Label: "proj pincode", Candidates: []string{"Customer Pin Code", "Pincode", "Pin Code", "pincode"}},
			{Name: FieldLatitude, Label: "proj lat", Candidates: []string{"Latitude", "Lat"}, Required: true},
			{Name: FieldLongitude, Label: "proj lon", Candidates: []string{"Longitude", "Lon", "Lng"}, Required: true},
			{
				Name:  FieldWeight,
				Label: "nrc vin count",
				Candidates: []string{
					"NRC VIN Count", "NRC_VIN_Count", "NRC VIN", "NRC_Vin",
					"NRC_Projected_RO_Yearly", "NRC_Projected_RO",
				},
				Required: true,
			},
		},
	}
}

// WithAliases returns a copy of s whose fields try the given extra spellings
// before their built-in candidates.
func (s Schema) WithAliases(aliases map[string][]string) Schema {
	out := Schema{Dataset: s.Dataset, Fields: make([]Field, len(s.Fields))}
	for i, f := range s.Fields {
		f.Candidates = append(slices.Clone(aliases[f.Name]), f.Candidates...)
		out.Fields[i] = f
	}
	return out
}

// Mapping records, per logical field, the column index it resolved to.
type Mapping struct {
	Dataset string
	Headers []string
	index   map[string]int
}

// Index returns the column index for a field.
func (m Mapping) Index(field string) (int, bool) {
	i, ok := m.index[field]
	return i, ok
}

// Column returns the header resolved for a field, or "".
func (m Mapping) Column(field string) string {
	if i, ok := m.index[field]; ok {
		return m.Headers[i]
	}
	return ""
}

// MissingColumnError reports required fields that no header matched.
type MissingColumnError struct {
	Dataset   string
	Fields    []string
	Available []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("columns: could not detect required columns in %s: %s (available: %s)",
		e.Dataset, strings.Join(e.Fields, ", "), strings.Join(e.Available, ", "))
}

// ResolveSchema resolves every field of s against headers. It fails with a
// *MissingColumnError naming all unresolved required fields.
func ResolveSchema(headers []string, s Schema) (Mapping, error) {
	m := Mapping{Dataset: s.Dataset, Headers: headers, index: make(map[string]int, len(s.Fields))}

	var missing []string
	for _, f := range s.Fields {
		i := ResolveIndex(headers, f.Candidates)
		if i < 0 {
			if f.Required {
				missing = append(missing, f.Label)
			}
			continue
		}
		m.index[f.Name] = i
	}

	if len(missing) > 0 {
		return Mapping{}, &MissingColumnError{Dataset: s.Dataset, Fields: missing, Available: headers}
	}
	return m, nil
}
