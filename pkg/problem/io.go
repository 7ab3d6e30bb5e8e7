package problem

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/gridroute/gridroute/pkg/errors"
)

// ReadJSON decodes a problem from r and validates it.
//
// The input must be a JSON object with a "grid" and a "nets" array:
//
//	{
//	  "grid": {"width": 20, "height": 20, "channel_width": 2},
//	  "nets": [
//	    {"name": "n0", "source": {"x": 0, "y": 0}, "sinks": [{"x": 8, "y": 3}]}
//	  ]
//	}
func ReadJSON(r io.Reader) (*Problem, error) {
	var p Problem
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidProblem, err, "decode problem")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// WriteJSON encodes the problem as indented JSON. The output round-trips
// through [ReadJSON].
func WriteJSON(p *Problem, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("encode problem: %w", err)
	}
	return nil
}

// LoadFile reads and validates a problem file.
func LoadFile(path string) (*Problem, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeFileNotFound, "problem file %s not found", path)
		}
		return nil, fmt.Errorf("open problem: %w", err)
	}
	defer f.Close()
	return ReadJSON(f)
}

// SaveFile writes the problem to a file.
func SaveFile(p *Problem, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create problem file: %w", err)
	}
	defer f.Close()
	return WriteJSON(p, f)
}
