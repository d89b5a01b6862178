package coverage

import (
	"bufio"
	"fmt"
	"io"

	"golang.org/x/tools/cover"
)

// FromProfiles builds a map from parsed Go cover profiles
func FromProfiles(profiles []*cover.Profile) (*Map, error) {
	m := NewMap()
	for _, p := range profiles {
		mode := Mode(p.Mode)
		if !mode.IsValid() {
			return nil, fmt.Errorf("profile %s: unknown cover mode %q", p.FileName, p.Mode)
		}
		for _, b := range p.Blocks {
			m.AddBlock(p.FileName, mode, Block{
				StartLine: b.StartLine,
				StartCol:  b.StartCol,
				EndLine:   b.EndLine,
				EndCol:    b.EndCol,
				NumStmt:   b.NumStmt,
				Count:     b.Count,
			})
		}
	}
	return m, nil
}

// ParseProfile reads a Go cover profile ("mode: ..." followed by block lines)
func ParseProfile(r io.Reader) (*Map, error) {
	profiles, err := cover.ParseProfilesFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse cover profile: %w", err)
	}
	return FromProfiles(profiles)
}

// ParseProfileFile reads a Go cover profile from disk
func ParseProfileFile(name string) (*Map, error) {
	profiles, err := cover.ParseProfiles(name)
	if err != nil {
		return nil, fmt.Errorf("failed to parse cover profile %s: %w", name, err)
	}
	return FromProfiles(profiles)
}

// WriteProfile writes the map as a Go cover profile so it can be fed to
// `go tool cover`. A profile has a single mode, the widest one in the map.
func WriteProfile(w io.Writer, m *Map) error {
	mode := ModeSet
	for _, path := range m.Files() {
		mode = mergeMode(mode, m.files[path].Mode)
	}

	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "mode: %s\n", mode); err != nil {
		return err
	}
	for _, path := range m.Files() {
		for _, b := range m.files[path].Blocks() {
			if _, err := fmt.Fprintf(bw, "%s:%d.%d,%d.%d %d %d\n",
				path, b.StartLine, b.StartCol, b.EndLine, b.EndCol, b.NumStmt, b.Count); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}
