// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the printlist pipeline:
// the closed set of report fields, the extracted record, and the stage
// configuration consumed by the collaborators.
package types

import (
	"fmt"
	"strings"
)

// FieldKey identifies one field of a manufacturing report. The set is closed.
type FieldKey string

const (
	FieldManufacturingNumber FieldKey = "manufacturing_number" // 製造番号
	FieldPrintNumber         FieldKey = "print_number"         // 印刷番号
	FieldManufacturingDate   FieldKey = "manufacturing_date"   // 製造日
	FieldCompanyName         FieldKey = "company_name"         // 会社名
	FieldProductName         FieldKey = "product_name"         // 製品名
	FieldProductType         FieldKey = "product_type"         // 製品種類
	FieldOuterPackaging      FieldKey = "outer_packaging"      // 外装包材
	FieldSurfacePrinting     FieldKey = "surface_printing"     // 表面印刷
	FieldQuantity            FieldKey = "quantity"             // 製造個数
	FieldFileName            FieldKey = "file_name"            // ファイル名
	FieldMemo                FieldKey = "memo"                 // 備考

	// FieldPrintData holds the rendered Classification. It is derived and
	// never captured directly.
	FieldPrintData FieldKey = "print_data" // 印刷データ
)

var allFieldKeys = []FieldKey{
	FieldManufacturingNumber,
	FieldPrintNumber,
	FieldManufacturingDate,
	FieldCompanyName,
	FieldProductName,
	FieldProductType,
	FieldOuterPackaging,
	FieldSurfacePrinting,
	FieldQuantity,
	FieldFileName,
	FieldMemo,
	FieldPrintData,
}

// AllFieldKeys returns every FieldKey in canonical order.
func AllFieldKeys() []FieldKey {
	out := make([]FieldKey, len(allFieldKeys))
	copy(out, allFieldKeys)
	return out
}

// ParseFieldKey returns the FieldKey named s, or an error for names outside
// the closed set.
func ParseFieldKey(s string) (FieldKey, error) {
	k := FieldKey(strings.TrimSpace(s))
	for _, known := range allFieldKeys {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown field key %q", s)
}

// Classification says whether a production run reuses prior print data.
type Classification string

const (
	ClassificationNew     Classification = "NEW"
	ClassificationRepeat  Classification = "REPEAT"
	ClassificationUnknown Classification = "UNKNOWN"
)

// Record is the immutable result of extracting one report. Every FieldKey is
// present; a field that was not found holds the empty string.
type Record struct {
	values         map[FieldKey]string
	classification Classification
}

// NewRecord builds a Record from values. Keys missing from values are stored
// as empty strings and surrounding whitespace is trimmed. The print_data
// field is whatever the caller supplies; the extractor fills it with the
// rendered classification.
func NewRecord(values map[FieldKey]string, c Classification) Record {
	r := Record{
		values:         make(map[FieldKey]string, len(allFieldKeys)),
		classification: c,
	}
	for _, k := range allFieldKeys {
		r.values[k] = strings.TrimSpace(values[k])
	}
	if r.classification == "" {
		r.classification = ClassificationUnknown
	}
	return r
}

// Get returns the value for k, or "" when the field was not found.
func (r Record) Get(k FieldKey) string {
	return r.values[k]
}

// Has reports whether k holds a non-empty value.
func (r Record) Has(k FieldKey) bool {
	return r.values[k] != ""
}

// Classification returns the derived print-data classification.
func (r Record) Classification() Classification {
	if r.classification == "" {
		return ClassificationUnknown
	}
	return r.classification
}

// Map returns a copy of the record's values keyed by FieldKey.
func (r Record) Map() map[FieldKey]string {
	out := make(map[FieldKey]string, len(allFieldKeys))
	for _, k := range allFieldKeys {
		out[k] = r.values[k]
	}
	return out
}

// recordView is the serialised shape of a Record in CLI output.
type recordView struct {
	Fields         map[FieldKey]string `json:"fields" yaml:"fields"`
	Classification Classification      `json:"classification" yaml:"classification"`
}

// View returns a serialisable snapshot of the record.
func (r Record) View() any {
	return recordView{Fields: r.Map(), Classification: r.Classification()}
}
