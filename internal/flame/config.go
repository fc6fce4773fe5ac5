package flame

import (
	"fmt"
	"io"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// DecodeParams reads TOML overrides from r on top of base. Keys that do not
// name a parameter are rejected so a typo cannot silently fall back to a
// default.
func DecodeParams(r io.Reader, base Params) (Params, error) {
	p := base
	dec := toml.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return base, fmt.Errorf("decoding parameters: %w", err)
	}
	if err := p.Validate(); err != nil {
		return base, err
	}
	return p, nil
}

// LoadParams reads a TOML parameter file over DefaultParams.
func LoadParams(path string) (Params, error) {
	f, err := os.Open(path)
	if err != nil {
		return Params{}, err
	}
	defer f.Close()
	p, err := DecodeParams(f, DefaultParams())
	if err != nil {
		return Params{}, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}
