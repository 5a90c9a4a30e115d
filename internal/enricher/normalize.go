package enricher

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FieldKind tags the shape of a profile value.
type FieldKind int

// Field shapes recognized by the normalizer.
const (
	KindAbsent FieldKind = iota
	KindText
	KindList
	KindRaw
)

func (k FieldKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindList:
		return "list"
	case KindRaw:
		return "raw"
	default:
		return "absent"
	}
}

// FieldValue is a profile value after shape detection.
// Raw holds anything that is neither a string nor a list of strings.
type FieldValue struct {
	Kind FieldKind
	Text string
	List []string
	Raw  any
}

// ValueOf classifies the value stored under key.
func ValueOf(p Profile, key string) FieldValue {
	v, ok := p[key]
	if !ok || v == nil {
		return FieldValue{Kind: KindAbsent}
	}
	switch typed := v.(type) {
	case string:
		return FieldValue{Kind: KindText, Text: typed}
	case []string:
		return FieldValue{Kind: KindList, List: append([]string{}, typed...)}
	case []any:
		list := make([]string, 0, len(typed))
		for _, item := range typed {
			s, isString := item.(string)
			if !isString {
				return FieldValue{Kind: KindRaw, Raw: v}
			}
			list = append(list, s)
		}
		return FieldValue{Kind: KindList, List: list}
	default:
		return FieldValue{Kind: KindRaw, Raw: v}
	}
}

// Encode renders the value for a text column. Text is returned unchanged so
// strings are never double-encoded; lists and raw values become JSON text.
func (f FieldValue) Encode() (*string, error) {
	switch f.Kind {
	case KindAbsent:
		return nil, nil
	case KindText:
		s := f.Text
		return &s, nil
	case KindList:
		return canonicalJSON(f.List)
	default:
		return canonicalJSON(f.Raw)
	}
}

func canonicalJSON(v any) (*string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode field: %w", err)
	}
	s := string(bytes.TrimRight(buf.Bytes(), "\n"))
	return &s, nil
}

// NormalizeProfile converts an extracted profile into the row persisted by the sink.
func NormalizeProfile(companyID int64, companyName string, p Profile) (SummaryRow, error) {
	row := SummaryRow{CompanyID: companyID, CompanyName: companyName}
	columns := []struct {
		key string
		dst **string
	}{
		{FieldSummary, &row.Summary},
		{FieldDepartment, &row.Department},
		{FieldProducts, &row.Products},
		{FieldServices, &row.Services},
		{FieldCustomerSegments, &row.CustomerSegments},
		{FieldKeyTechnologies, &row.KeyTechnologies},
		{FieldTargetMarket, &row.TargetMarket},
		{FieldUniqueValueProposition, &row.UniqueValueProposition},
		{FieldPainPoints, &row.PainPoints},
	}
	for _, col := range columns {
		encoded, err := ValueOf(p, col.key).Encode()
		if err != nil {
			return SummaryRow{}, fmt.Errorf("normalize %s: %w", col.key, err)
		}
		*col.dst = encoded
	}
	return row, nil
}
