// Package manifest decodes the document that describes how the output is
// assembled: an optional header and footer, optional wrapper delimiters, and
// the ordered list of parts.
//
// Manifests are authored as JSON (comments and trailing commas allowed, via
// tidwall/jsonc) or YAML. Both decode into the same Manifest value.
package manifest

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/stitch/internal/errors"
	"github.com/conneroisu/stitch/internal/template"
)

// Manifest is the parsed configuration document.
type Manifest struct {
	Header  *Section `json:"header,omitempty" yaml:"header,omitempty"`
	Footer  *Section `json:"footer,omitempty" yaml:"footer,omitempty"`
	Wrapper *Wrapper `json:"wrapper,omitempty" yaml:"wrapper,omitempty"`
	Parts   []Part   `json:"parts" yaml:"parts"`
}

// Section is a header or footer fragment with its declared variables.
type Section struct {
	File      string    `json:"file" yaml:"file"`
	Variables Variables `json:"variables,omitempty" yaml:"variables,omitempty"`
}

// Wrapper holds literal delimiters placed around the parts.
type Wrapper struct {
	Start string `json:"start,omitempty" yaml:"start,omitempty"`
	End   string `json:"end,omitempty" yaml:"end,omitempty"`
}

// Part is one ordered body fragment. Name and Description are only used
// for logging.
type Part struct {
	Name        string    `json:"name" yaml:"name"`
	File        string    `json:"file" yaml:"file"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Variables   Variables `json:"variables,omitempty" yaml:"variables,omitempty"`
}

// Label returns the part's name, falling back to its file.
func (p Part) Label() string {
	if p.Name != "" {
		return p.Name
	}
	return p.File
}

// Variables are declared placeholder values. Any scalar in the document is
// accepted and kept in its textual form.
type Variables map[string]string

// Template converts v for use with the template package.
func (v Variables) Template() template.Variables {
	return template.Variables(v)
}

var errNotScalar = stderrors.New("variable values must be scalars")

// UnmarshalJSON accepts strings, numbers, booleans, and null.
func (v *Variables) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	if raw == nil {
		*v = nil
		return nil
	}

	out := make(Variables, len(raw))
	for name, value := range raw {
		switch val := value.(type) {
		case string:
			out[name] = val
		case json.Number:
			out[name] = val.String()
		case bool:
			out[name] = strconv.FormatBool(val)
		case nil:
			out[name] = ""
		default:
			return fmt.Errorf("variable %q: %w", name, errNotScalar)
		}
	}
	*v = out

	return nil
}

// UnmarshalYAML accepts a mapping of scalar values.
func (v *Variables) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.AliasNode {
		node = node.Alias
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: variables must be a mapping: %w", node.Line, errNotScalar)
	}

	out := make(Variables, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if value.Kind == yaml.AliasNode {
			value = value.Alias
		}
		if value.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: variable %q: %w", value.Line, key.Value, errNotScalar)
		}
		if value.Tag == "!!null" {
			out[key.Value] = ""
			continue
		}
		out[key.Value] = value.Value
	}
	*v = out

	return nil
}

// Format identifies the encoding of a manifest file.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// String returns the string representation of the Format
func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	default:
		return "unknown"
	}
}

// FormatFromPath picks the decoder from the file extension. Anything that
// is not .yaml or .yml is treated as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Load reads and parses the manifest at path from fsys.
func Load(fsys afero.Fs, path string) (*Manifest, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, errors.NewConfigReadError(path, err)
	}

	m, err := Parse(data, FormatFromPath(path))
	if err != nil {
		var se *errors.StitchError
		if stderrors.As(err, &se) && se.File == "" {
			se.File = path
		}
		return nil, err
	}

	return m, nil
}

// Parse decodes data and checks the document's shape.
func Parse(data []byte, format Format) (*Manifest, error) {
	var m Manifest

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, classify(err)
		}
	default:
		if err := json.Unmarshal(jsonc.ToJSON(data), &m); err != nil {
			return nil, classify(err)
		}
	}

	if err := m.Check(); err != nil {
		return nil, err
	}

	return &m, nil
}

// classify separates undecodable input from a decodable document of the
// wrong shape.
func classify(err error) error {
	var jsonType *json.UnmarshalTypeError
	var yamlType *yaml.TypeError
	if stderrors.As(err, &jsonType) || stderrors.As(err, &yamlType) || stderrors.Is(err, errNotScalar) {
		invalid := errors.NewConfigInvalidError("config has an invalid shape")
		invalid.Cause = err
		return invalid
	}

	return errors.NewConfigReadError("", fmt.Errorf("parsing config: %w", err))
}

// Check verifies the fields composition depends on: parts must be present,
// and every part, header, and footer must name a file.
func (m *Manifest) Check() error {
	if m.Parts == nil {
		return errors.NewConfigInvalidError("config must contain a parts sequence")
	}

	for i, part := range m.Parts {
		if strings.TrimSpace(part.File) == "" {
			return errors.NewConfigInvalidError(fmt.Sprintf("part %d (%s) has no file", i, part.Name))
		}
	}

	if m.Header != nil && strings.TrimSpace(m.Header.File) == "" {
		return errors.NewConfigInvalidError("header has no file")
	}
	if m.Footer != nil && strings.TrimSpace(m.Footer.File) == "" {
		return errors.NewConfigInvalidError("footer has no file")
	}

	return nil
}
