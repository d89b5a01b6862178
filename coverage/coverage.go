// Package coverage holds statement coverage collected from test sessions.
//
// A Map is keyed by source file path. Each file holds statement blocks in
// the shape produced by Go cover profiles, so coverage collected by several
// sessions can be merged block by block.
package coverage

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Mode is the counting mode of the collected coverage
type Mode string

const (
	ModeSet    Mode = "set"    // Blocks record whether they ran
	ModeCount  Mode = "count"  // Blocks record how many times they ran
	ModeAtomic Mode = "atomic" // As count, collected with atomic counters
)

// IsValid reports whether the mode is a known cover mode
func (m Mode) IsValid() bool {
	switch m {
	case ModeSet, ModeCount, ModeAtomic:
		return true
	}
	return false
}

// counts reports whether merged blocks sum their counts
func (m Mode) counts() bool {
	return m == ModeCount || m == ModeAtomic
}

// mergeMode picks the mode of two merged files. Counting modes win over set.
func mergeMode(a, b Mode) Mode {
	switch {
	case a == ModeAtomic || b == ModeAtomic:
		return ModeAtomic
	case a == ModeCount || b == ModeCount:
		return ModeCount
	default:
		return ModeSet
	}
}

// Block is a contiguous run of statements in a source file
type Block struct {
	StartLine int `json:"startLine"`
	StartCol  int `json:"startCol"`
	EndLine   int `json:"endLine"`
	EndCol    int `json:"endCol"`
	NumStmt   int `json:"numStmt"`
	Count     int `json:"count"`
}

type blockKey struct {
	startLine, startCol, endLine, endCol int
}

func (b Block) key() blockKey {
	return blockKey{b.StartLine, b.StartCol, b.EndLine, b.EndCol}
}

// FileCoverage is the coverage of a single source file
type FileCoverage struct {
	Path string
	Mode Mode

	blocks map[blockKey]*Block
}

func newFileCoverage(path string, mode Mode) *FileCoverage {
	return &FileCoverage{
		Path:   path,
		Mode:   mode,
		blocks: make(map[blockKey]*Block),
	}
}

// add merges a block into the file. Set mode keeps the highest count,
// counting modes add them up.
func (f *FileCoverage) add(b Block) {
	existing, ok := f.blocks[b.key()]
	if !ok {
		copied := b
		f.blocks[b.key()] = &copied
		return
	}
	if f.Mode.counts() {
		existing.Count += b.Count
	} else if b.Count > existing.Count {
		existing.Count = b.Count
	}
	if b.NumStmt > existing.NumStmt {
		existing.NumStmt = b.NumStmt
	}
}

// Blocks returns the blocks of the file ordered by position
func (f *FileCoverage) Blocks() []Block {
	blocks := make([]Block, 0, len(f.blocks))
	for _, b := range f.blocks {
		blocks = append(blocks, *b)
	}
	sort.Slice(blocks, func(i, j int) bool {
		a, b := blocks[i], blocks[j]
		if a.StartLine != b.StartLine {
			return a.StartLine < b.StartLine
		}
		if a.StartCol != b.StartCol {
			return a.StartCol < b.StartCol
		}
		if a.EndLine != b.EndLine {
			return a.EndLine < b.EndLine
		}
		return a.EndCol < b.EndCol
	})
	return blocks
}

// Summary returns the statement totals of the file
func (f *FileCoverage) Summary() Summary {
	var s Summary
	for _, b := range f.blocks {
		s.Statements += b.NumStmt
		if b.Count > 0 {
			s.Covered += b.NumStmt
		}
	}
	return s
}

// UncoveredLines returns the line ranges of blocks that never ran
func (f *FileCoverage) UncoveredLines() []LineRange {
	var ranges []LineRange
	for _, b := range f.Blocks() {
		if b.Count > 0 || b.NumStmt == 0 {
			continue
		}
		if n := len(ranges); n > 0 && b.StartLine <= ranges[n-1].End+1 {
			if b.EndLine > ranges[n-1].End {
				ranges[n-1].End = b.EndLine
			}
			continue
		}
		ranges = append(ranges, LineRange{Start: b.StartLine, End: b.EndLine})
	}
	return ranges
}

// LineRange is an inclusive range of source lines
type LineRange struct {
	Start int
	End   int
}

func (r LineRange) String() string {
	if r.Start == r.End {
		return fmt.Sprintf("%d", r.Start)
	}
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// Summary holds statement totals
type Summary struct {
	Statements int
	Covered    int
}

// Pct returns the covered percentage. Nothing to cover counts as fully covered.
func (s Summary) Pct() float64 {
	if s.Statements == 0 {
		return 100
	}
	return float64(s.Covered) * 100 / float64(s.Statements)
}

// Add returns the sum of both summaries
func (s Summary) Add(o Summary) Summary {
	return Summary{
		Statements: s.Statements + o.Statements,
		Covered:    s.Covered + o.Covered,
	}
}

// Map is a mergeable mapping from source file path to file coverage.
// A Map is not safe for concurrent use.
type Map struct {
	files map[string]*FileCoverage
}

// NewMap creates an empty coverage map
func NewMap() *Map {
	return &Map{files: make(map[string]*FileCoverage)}
}

// AddBlock merges a single block for the given file
func (m *Map) AddBlock(path string, mode Mode, b Block) {
	f, ok := m.files[path]
	if !ok {
		f = newFileCoverage(path, mode)
		m.files[path] = f
	} else if f.Mode != mode {
		f.Mode = mergeMode(f.Mode, mode)
	}
	f.add(b)
}

// Merge folds other into m and returns m. Blocks are copied, so later
// changes to other do not leak into m.
func (m *Map) Merge(other *Map) *Map {
	if other == nil {
		return m
	}
	for _, path := range other.Files() {
		f := other.files[path]
		for _, b := range f.blocks {
			m.AddBlock(path, f.Mode, *b)
		}
	}
	return m
}

// Files returns the covered file paths in sorted order
func (m *Map) Files() []string {
	files := make([]string, 0, len(m.files))
	for path := range m.files {
		files = append(files, path)
	}
	sort.Strings(files)
	return files
}

// File returns the coverage of a single file, or nil
func (m *Map) File(path string) *FileCoverage {
	return m.files[path]
}

// Len returns the number of files in the map
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.files)
}

// Summary returns the statement totals over all files
func (m *Map) Summary() Summary {
	var s Summary
	for _, f := range m.files {
		s = s.Add(f.Summary())
	}
	return s
}

type jsonMap struct {
	Mode  Mode               `json:"mode,omitempty"`
	Files map[string][]Block `json:"files"`
}

// MarshalJSON encodes the map in the event stream form. Files merged
// from different modes are written with the widest mode.
func (m *Map) MarshalJSON() ([]byte, error) {
	out := jsonMap{Mode: ModeSet, Files: make(map[string][]Block, len(m.files))}
	for path, f := range m.files {
		out.Mode = mergeMode(out.Mode, f.Mode)
		out.Files[path] = f.Blocks()
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the event stream form of a coverage map
func (m *Map) UnmarshalJSON(data []byte) error {
	var in jsonMap
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	mode := in.Mode
	if mode == "" {
		mode = ModeSet
	}
	if !mode.IsValid() {
		return fmt.Errorf("unknown coverage mode %q", mode)
	}
	m.files = make(map[string]*FileCoverage, len(in.Files))
	for path, blocks := range in.Files {
		for _, b := range blocks {
			m.AddBlock(path, mode, b)
		}
	}
	return nil
}
