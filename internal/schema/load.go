package schema

import (
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// LoadFile reads a schema file. See Parse for the accepted shapes.
func LoadFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read schema file %s", path)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "schema file %s", path)
	}
	return s, nil
}

// Parse decodes a YAML or JSON schema document. Two shapes are accepted, a
// mapping of table name to column list:
//
//	users: [id, name]
//	orders: [id, user_id]
//
// and a list of tables:
//
//	tables:
//	  - name: users
//	    columns: [id, name]
//
// Table order follows the document in both cases. An empty document is an
// empty schema.
func Parse(data []byte) (*Schema, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "parse schema")
	}
	if len(doc.Content) == 0 {
		return FromTables(nil), nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, errors.WithHint(
			errors.Newf("schema must be a mapping (line %d)", root.Line),
			"use `table: [column, ...]` entries or a `tables:` list")
	}

	if list := tableList(root); list != nil {
		var tables []Table
		if err := list.Decode(&tables); err != nil {
			return nil, errors.Wrap(err, "decode tables list")
		}
		return FromTables(tables), nil
	}

	tables := make([]Table, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		var columns []string
		if err := value.Decode(&columns); err != nil {
			return nil, errors.Wrapf(err, "columns of table %q (line %d)", key.Value, key.Line)
		}
		tables = append(tables, Table{Name: key.Value, Columns: columns})
	}
	return FromTables(tables), nil
}

// tableList returns the sequence under a lone "tables" key when it holds
// table objects. A table literally named "tables" maps to scalars instead.
func tableList(root *yaml.Node) *yaml.Node {
	if len(root.Content) != 2 || root.Content[0].Value != "tables" {
		return nil
	}
	seq := root.Content[1]
	if seq.Kind != yaml.SequenceNode {
		return nil
	}
	for _, item := range seq.Content {
		if item.Kind != yaml.MappingNode {
			return nil
		}
	}
	return seq
}

// Encode writes s as a YAML mapping of table name to column list, in schema
// order.
func Encode(w io.Writer, s *Schema) error {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, t := range s.Tables() {
		columns := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
		for _, c := range t.Columns {
			columns.Content = append(columns.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: c})
		}
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: t.Name},
			columns)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return errors.Wrap(err, "encode schema")
	}
	return enc.Close()
}
