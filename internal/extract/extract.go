// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract pulls the report fields out of free-form manufacturing
// report text. Each field appears as "<label><sep><value>" where sep is a
// half-width or full-width colon. Extraction is pure and total: a field
// that cannot be found is the empty string, never an error.
package extract

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/pdiddy/printlist/internal/profile"
	"github.com/pdiddy/printlist/pkg/types"
)

// hspace matches horizontal whitespace, including the ideographic space.
const hspace = `[ \t\x{3000}]*`

// Extractor applies one compiled pattern table. It holds no mutable state
// and is safe for concurrent use.
type Extractor struct {
	fields      []field
	source      field
	rule        profile.ClassificationRule
	terminators *regexp.Regexp
}

type field struct {
	key            types.FieldKey
	label          *regexp.Regexp
	mode           profile.Mode
	context        string
	contextEnd     string
	requireContext bool
	occurrence     profile.Occurrence
	trimSuffix     []string
}

// New compiles the pattern table in ext.
func New(ext profile.Extraction) (*Extractor, error) {
	e := &Extractor{rule: ext.Classification}

	var allLabels []string
	var headers []string
	addTerms := func(fp profile.FieldPattern) {
		allLabels = append(allLabels, fp.Labels...)
		if fp.Context != "" {
			headers = append(headers, fp.Context)
		}
	}

	for _, k := range types.AllFieldKeys() {
		fp, ok := ext.Fields[k]
		if !ok || k == types.FieldPrintData {
			continue
		}
		f, err := compile(k, fp)
		if err != nil {
			return nil, err
		}
		e.fields = append(e.fields, f)
		addTerms(fp)
	}

	src, err := compile(types.FieldPrintData, ext.Classification.Pattern)
	if err != nil {
		return nil, err
	}
	e.source = src
	addTerms(ext.Classification.Pattern)

	if len(ext.Classification.RepeatMarkers) == 0 {
		return nil, fmt.Errorf("%w: no repeat markers", profile.ErrInvalidProfile)
	}

	alts := make([]string, 0, len(allLabels)+len(headers))
	sort.Slice(allLabels, func(i, j int) bool { return len(allLabels[i]) > len(allLabels[j]) })
	for _, l := range allLabels {
		alts = append(alts, regexp.QuoteMeta(l)+hspace+`[:：]`)
	}
	for _, h := range headers {
		alts = append(alts, regexp.QuoteMeta(h))
	}
	e.terminators = regexp.MustCompile(strings.Join(alts, "|"))

	return e, nil
}

func compile(k types.FieldKey, fp profile.FieldPattern) (field, error) {
	if len(fp.Labels) == 0 {
		return field{}, fmt.Errorf("%w: field %s has no labels", profile.ErrInvalidProfile, k)
	}
	quoted := make([]string, len(fp.Labels))
	for i, l := range fp.Labels {
		quoted[i] = regexp.QuoteMeta(strings.TrimSpace(l))
	}
	re, err := regexp.Compile(`(?:` + strings.Join(quoted, "|") + `)` + hspace + `[:：]` + hspace)
	if err != nil {
		return field{}, fmt.Errorf("%w: field %s: %v", profile.ErrInvalidProfile, k, err)
	}
	occ := fp.Occurrence
	if occ == "" {
		occ = profile.OccurrenceFirst
	}
	return field{
		key:            k,
		label:          re,
		mode:           fp.Mode,
		context:        fp.Context,
		contextEnd:     fp.ContextEnd,
		requireContext: fp.RequireContext,
		occurrence:     occ,
		trimSuffix:     fp.TrimSuffix,
	}, nil
}

// Extract returns the record found in text. Every FieldKey is present in the
// result; print_data holds the rendered classification.
func (e *Extractor) Extract(text string) types.Record {
	text = normalizeNewlines(text)

	values := make(map[types.FieldKey]string, len(e.fields)+1)
	for _, f := range e.fields {
		if v, ok := e.find(text, f); ok {
			values[f.key] = v
		}
	}

	c := e.Classify(text)
	values[types.FieldPrintData] = e.rule.Render(c)
	return types.NewRecord(values, c)
}

// Classify derives the print-data classification from the raw phrase after
// the print-data label. The raw phrase itself is discarded.
func (e *Extractor) Classify(text string) types.Classification {
	raw, ok := e.find(normalizeNewlines(text), e.source)
	if !ok {
		return types.ClassificationUnknown
	}
	for _, m := range e.rule.RepeatMarkers {
		if m != "" && strings.Contains(raw, m) {
			return types.ClassificationRepeat
		}
	}
	return types.ClassificationNew
}

// find locates the occurrence of f selected by its context and occurrence
// policy and returns the captured, trimmed value.
func (e *Extractor) find(text string, f field) (string, bool) {
	matches := f.label.FindAllStringIndex(text, -1)

	if f.context != "" {
		scoped := matches[:0:0]
		if from, to, ok := section(text, f.context, f.contextEnd); ok {
			for _, m := range matches {
				if m[0] >= from && m[0] < to {
					scoped = append(scoped, m)
				}
			}
		}
		switch {
		case len(scoped) > 0:
			matches = scoped
		case f.requireContext:
			return "", false
		}
	}
	if len(matches) == 0 {
		return "", false
	}

	m := matches[0]
	switch f.occurrence {
	case profile.OccurrenceLast:
		m = matches[len(matches)-1]
	case profile.OccurrenceNested:
		if len(matches) > 1 {
			m = matches[1]
		}
	}
	return clean(e.capture(text, m[1], f.mode), f.trimSuffix), true
}

// section returns the byte range after the first header and before the
// next end marker.
func section(text, header, end string) (int, int, bool) {
	at := strings.Index(text, header)
	if at < 0 {
		return 0, 0, false
	}
	from := at + len(header)
	to := len(text)
	if end != "" {
		if i := strings.Index(text[from:], end); i >= 0 {
			to = from + i
		}
	}
	return from, to, true
}

func normalizeNewlines(text string) string {
	return strings.ReplaceAll(strings.ReplaceAll(text, "\r\n", "\n"), "\r", "\n")
}

func (e *Extractor) capture(text string, start int, mode profile.Mode) string {
	rest := text[start:]
	switch mode {
	case profile.ModeToken:
		if i := strings.IndexFunc(rest, unicode.IsSpace); i >= 0 {
			return rest[:i]
		}
		return rest
	case profile.ModeMultiline:
		if loc := e.terminators.FindStringIndex(rest); loc != nil {
			return rest[:loc[0]]
		}
		return rest
	default:
		if i := strings.IndexByte(rest, '\n'); i >= 0 {
			return rest[:i]
		}
		return rest
	}
}

// clean trims whitespace and any configured trailing suffixes.
func clean(v string, suffixes []string) string {
	v = strings.TrimSpace(v)
	for changed := true; changed && v != ""; {
		changed = false
		for _, s := range suffixes {
			if s != "" && strings.HasSuffix(v, s) {
				v = strings.TrimSpace(strings.TrimSuffix(v, s))
				changed = true
			}
		}
	}
	return v
}
