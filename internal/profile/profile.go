// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package profile loads deployment variants of the report format: the
// pattern table used by the extractor and the two cell layouts used for
// placement. Variants differ only in data, so each one is a YAML document.
package profile

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/printlist/pkg/types"
)

//go:embed profiles/*.yaml
var builtin embed.FS

// ErrInvalidProfile marks a profile document that cannot be used.
var ErrInvalidProfile = errors.New("invalid profile")

// Mode selects how far a captured value extends.
type Mode string

const (
	// ModeToken captures up to the first whitespace.
	ModeToken Mode = "token"
	// ModeLine captures up to the end of the line.
	ModeLine Mode = "line"
	// ModeMultiline captures up to the next recognised label or end of text.
	ModeMultiline Mode = "multiline"
)

// Occurrence picks among several qualifying matches.
type Occurrence string

const (
	OccurrenceFirst Occurrence = "first"
	OccurrenceLast  Occurrence = "last"
	// OccurrenceNested takes the second occurrence, the one repeated under
	// a nested heading, and falls back to the only one when the label
	// appears once.
	OccurrenceNested Occurrence = "nested"
)

// FieldPattern describes how one field is found in the report text.
type FieldPattern struct {
	// Labels are the literal terms that introduce the value, followed by
	// ":" or "：".
	Labels []string `yaml:"labels"`

	Mode Mode `yaml:"mode"`

	// Context is a literal section header. Occurrences after it are
	// preferred over bare occurrences.
	Context string `yaml:"context,omitempty"`

	// ContextEnd is a literal that closes the section opened by Context,
	// such as "\n<" for the next header line. Empty means the section runs
	// to the end of the text.
	ContextEnd string `yaml:"context_end,omitempty"`

	// RequireContext drops bare occurrences entirely.
	RequireContext bool `yaml:"require_context,omitempty"`

	// Occurrence defaults to first.
	Occurrence Occurrence `yaml:"occurrence,omitempty"`

	// TrimSuffix lists strings stripped from the end of the value.
	TrimSuffix []string `yaml:"trim_suffix,omitempty"`
}

// ClassificationRule derives the print_data field from a raw phrase.
type ClassificationRule struct {
	// Pattern locates the raw phrase. Its mode is usually line.
	Pattern FieldPattern `yaml:"pattern"`

	// RepeatMarkers are the phrases meaning "same data as before".
	RepeatMarkers []string `yaml:"repeat_markers"`

	// Rendered values written for each classification.
	New     string `yaml:"new"`
	Repeat  string `yaml:"repeat"`
	Unknown string `yaml:"unknown"`
}

// Render returns the configured text for c.
func (r ClassificationRule) Render(c types.Classification) string {
	switch c {
	case types.ClassificationNew:
		return r.New
	case types.ClassificationRepeat:
		return r.Repeat
	default:
		return r.Unknown
	}
}

// Extraction is the pattern table for one variant.
type Extraction struct {
	Fields         map[types.FieldKey]FieldPattern `yaml:"fields"`
	Classification ClassificationRule              `yaml:"classification"`
}

// FileLayout maps fields onto the single-record template.
type FileLayout struct {
	// Sheet is the template sheet; empty means the active sheet.
	Sheet string                    `yaml:"sheet,omitempty"`
	Cells map[types.FieldKey]string `yaml:"cells"`
}

// BlockStyle describes the dropdowns applied once per new block.
type BlockStyle struct {
	// RowsFrom and RowsTo are offsets from the block origin, inclusive.
	RowsFrom int `yaml:"rows_from"`
	RowsTo   int `yaml:"rows_to"`

	StatusColumn    string   `yaml:"status_column"`
	StatusOptions   []string `yaml:"status_options"`
	AssigneeColumn  string   `yaml:"assignee_column"`
	AssigneeOptions []string `yaml:"assignee_options"`
}

// LogLayout maps fields onto one block of the shared print list.
type LogLayout struct {
	// BlockRows is the block height K.
	BlockRows int `yaml:"block_rows"`

	// OriginOffset is the relative row that lands on the block origin.
	OriginOffset int `yaml:"origin_offset"`

	// HeaderRows are occupied rows above the first block.
	HeaderRows int `yaml:"header_rows"`

	Cells map[types.FieldKey]string `yaml:"cells"`
	Style BlockStyle                `yaml:"style"`
}

// Profile is one deployment variant.
type Profile struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description,omitempty"`
	Extraction  Extraction `yaml:"extraction"`
	FileLayout  FileLayout `yaml:"file_layout"`
	LogLayout   LogLayout  `yaml:"log_layout"`
}

// Builtin lists the names of the embedded profiles.
func Builtin() []string {
	entries, err := builtin.ReadDir("profiles")
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}

// Load returns the embedded profile called nameOrPath, or reads the file at
// that path when no embedded profile matches.
func Load(nameOrPath string) (*Profile, error) {
	if nameOrPath == "" {
		nameOrPath = "standard"
	}
	data, err := builtin.ReadFile("profiles/" + nameOrPath + ".yaml")
	if err != nil {
		data, err = os.ReadFile(nameOrPath)
		if err != nil {
			return nil, fmt.Errorf("loading profile %s: %w", nameOrPath, err)
		}
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", filepath.Base(nameOrPath), err)
	}
	return p, nil
}

// Parse decodes and validates a profile document.
func Parse(data []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks the pattern table and the layout tables for structural
// problems. Coordinate conflicts are checked when the layouts are built.
func (p *Profile) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if len(p.Extraction.Fields) == 0 {
		add("extraction.fields is empty")
	}
	for _, k := range sortedKeys(p.Extraction.Fields) {
		if _, err := types.ParseFieldKey(string(k)); err != nil {
			add("extraction.fields: %v", err)
			continue
		}
		if k == types.FieldPrintData {
			add("extraction.fields: %s is derived; configure it under classification", k)
			continue
		}
		checkPattern(string(k), p.Extraction.Fields[k], add)
	}

	cls := p.Extraction.Classification
	checkPattern("classification.pattern", cls.Pattern, add)
	if len(cls.RepeatMarkers) == 0 {
		add("classification.repeat_markers is empty")
	}
	for i, m := range cls.RepeatMarkers {
		if strings.TrimSpace(m) == "" {
			add("classification.repeat_markers[%d] is blank", i)
		}
	}

	checkCells("file_layout.cells", p.FileLayout.Cells, add)
	checkCells("log_layout.cells", p.LogLayout.Cells, add)
	if p.LogLayout.BlockRows <= 0 {
		add("log_layout.block_rows must be positive")
	}
	if p.LogLayout.OriginOffset <= 0 {
		add("log_layout.origin_offset must be positive")
	}
	if p.LogLayout.HeaderRows < 0 {
		add("log_layout.header_rows must not be negative")
	}
	st := p.LogLayout.Style
	if st.RowsFrom < 0 || st.RowsTo < st.RowsFrom {
		add("log_layout.style rows %d..%d are not a range", st.RowsFrom, st.RowsTo)
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidProfile, strings.Join(problems, "; "))
	}
	return nil
}

func checkPattern(name string, fp FieldPattern, add func(string, ...any)) {
	if len(fp.Labels) == 0 {
		add("%s: no labels", name)
	}
	for i, l := range fp.Labels {
		if strings.TrimSpace(l) == "" {
			add("%s: label %d is blank", name, i)
		}
	}
	switch fp.Mode {
	case ModeToken, ModeLine, ModeMultiline:
	default:
		add("%s: unknown mode %q", name, fp.Mode)
	}
	switch fp.Occurrence {
	case "", OccurrenceFirst, OccurrenceLast, OccurrenceNested:
	default:
		add("%s: unknown occurrence %q", name, fp.Occurrence)
	}
	if fp.RequireContext && fp.Context == "" {
		add("%s: require_context without context", name)
	}
	if fp.ContextEnd != "" && fp.Context == "" {
		add("%s: context_end without context", name)
	}
}

func checkCells(name string, cells map[types.FieldKey]string, add func(string, ...any)) {
	if len(cells) == 0 {
		add("%s is empty", name)
	}
	for _, k := range sortedKeys(cells) {
		if _, err := types.ParseFieldKey(string(k)); err != nil {
			add("%s: %v", name, err)
		}
	}
}

func sortedKeys[V any](m map[types.FieldKey]V) []types.FieldKey {
	keys := make([]types.FieldKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
