package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"itemweaver/internal/core"
)

type itemFile struct {
	Items []core.Item `json:"items" yaml:"items"`
}

// LoadItemFile reads and parses the item collection at path.
//
// Supported formats: YAML (.yaml, .yml) and JSON (.json).
//
// The loader is deterministic:
//   - Disallows unknown fields (to avoid silent divergence).
//   - Rejects trailing data.
//   - Rejects items without an identity.
//
// A file without an items key yields an empty collection.
func LoadItemFile(path string) (*core.Collection, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read item file")
	}

	var f itemFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = decodeJSONStrict(b, &f)
	default:
		err = decodeYAMLStrict(b, &f)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "parse item file %s", path)
	}

	for i, it := range f.Items {
		if it.Identity == "" {
			return nil, errors.Errorf("parse item file %s: items[%d].identity is required", path, i)
		}
	}
	return core.NewCollection(f.Items...), nil
}

func decodeJSONStrict(b []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	// Ensure there is no trailing garbage (including a second JSON value).
	var trailing any
	if err := dec.Decode(&trailing); err != io.EOF {
		if err == nil {
			return errors.New("trailing data")
		}
		return err
	}
	return nil
}

func decodeYAMLStrict(b []byte, v any) error {
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}
	// A second document is trailing data.
	var trailing any
	if err := dec.Decode(&trailing); err != io.EOF {
		if err == nil {
			return errors.New("trailing data: multiple documents")
		}
		return err
	}
	return nil
}

// loadSource materializes an ItemSource. An absent source yields nil.
func loadSource(workDir string, src ItemSource) (*core.Collection, error) {
	switch src.Kind {
	case SourceAbsent:
		return nil, nil
	case SourceFile:
		return LoadItemFile(src.Path)
	case SourceInclude:
		col, err := core.NewIncludeResolver(workDir).Resolve(src.Include)
		if err != nil {
			return nil, errors.Wrapf(err, "resolve include %q", src.Original)
		}
		return col, nil
	default:
		return nil, errors.Errorf("unknown item source kind %d", src.Kind)
	}
}
