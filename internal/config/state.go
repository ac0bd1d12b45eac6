package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// State is what an interrupted generation needs to resume.
type State struct {
	// Counters maps each destination file to its next IFD index.
	Counters map[string]int `yaml:"ifd_counters"`
	// NextPlane is the number of planes, counted over all series in order,
	// already written.
	NextPlane int `yaml:"next_plane"`
}

// LoadState reads a state file. A missing file yields an empty state.
func LoadState(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &State{Counters: map[string]int{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}

	var st State
	if err := yaml.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parse state file: %w", err)
	}
	if st.Counters == nil {
		st.Counters = map[string]int{}
	}
	return &st, nil
}

// SaveState writes st to path.
func SaveState(path string, st *State) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	data, err := yaml.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	return nil
}

// Done reports whether the state marks a finished generation.
func (st *State) Done(total int) bool {
	return st.NextPlane >= total
}
