package domain

// FitmentRecord is one (year, make, model, position) leaf of the bulb finder tree.
// Two records are the same fitment only when all eight fields match.
type FitmentRecord struct {
	Year         string `json:"year"`
	Make         string `json:"make"`
	Model        string `json:"model"`
	Position     string `json:"bulb_position"`
	YearCode     string `json:"year_value"`
	MakeCode     string `json:"make_value"`
	ModelCode    string `json:"model_value"`
	PositionCode string `json:"position_value"`
}

// FitmentColumns is the fixed column order of the tabular export.
var FitmentColumns = []string{
	"year",
	"make",
	"model",
	"bulb_position",
	"year_value",
	"make_value",
	"model_value",
	"position_value",
}

// Row returns the record fields in FitmentColumns order.
func (r FitmentRecord) Row() []string {
	return []string{
		r.Year,
		r.Make,
		r.Model,
		r.Position,
		r.YearCode,
		r.MakeCode,
		r.ModelCode,
		r.PositionCode,
	}
}

// Unique drops repeated records, keeping the first occurrence of each.
func Unique(records []FitmentRecord) []FitmentRecord {
	seen := make(map[FitmentRecord]struct{}, len(records))
	unique := make([]FitmentRecord, 0, len(records))
	for _, r := range records {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		unique = append(unique, r)
	}
	return unique
}

// RawOption is an <option> as read off a control, before normalization.
type RawOption struct {
	Value string `json:"value"`
	Text  string `json:"text"`
}

// OptionEntry is a selectable option: non-empty code, non-placeholder label.
type OptionEntry struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}
