package index

import (
	"fmt"
	"sort"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
)

// Field types accepted by Schema.
const (
	FieldText    = "text"
	FieldKeyword = "keyword"
	FieldNumeric = "numeric"
	FieldBoolean = "boolean"
)

// Field describes one schema field. Stored defaults to true so query results
// can return the original values.
type Field struct {
	Type   string `json:"type" yaml:"type"`
	Stored *bool  `json:"stored,omitempty" yaml:"stored,omitempty"`
}

// Schema is the declarative shape of documents in an index. It is fixed at
// index creation and recorded in the root manifest.
type Schema struct {
	Fields map[string]Field `json:"fields" yaml:"fields"`
}

func (s Schema) Validate() error {
	if len(s.Fields) == 0 {
		return fmt.Errorf("schema has no fields")
	}
	for name, f := range s.Fields {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("schema field name is empty")
		}
		switch f.Type {
		case FieldText, FieldKeyword, FieldNumeric, FieldBoolean:
		default:
			return fmt.Errorf("schema field %q: unknown type %q", name, f.Type)
		}
	}
	return nil
}

// FieldNames returns the schema's field names in sorted order.
func (s Schema) FieldNames() []string {
	names := make([]string, 0, len(s.Fields))
	for name := range s.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s Schema) buildMapping() (mapping.IndexMapping, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	idxMapping := bleve.NewIndexMapping()
	idxMapping.DefaultAnalyzer = "standard"

	doc := bleve.NewDocumentMapping()
	doc.Dynamic = false

	for name, f := range s.Fields {
		stored := true
		if f.Stored != nil {
			stored = *f.Stored
		}
		switch f.Type {
		case FieldText:
			fm := bleve.NewTextFieldMapping()
			fm.Analyzer = "standard"
			fm.Store = stored
			fm.Index = true
			doc.AddFieldMappingsAt(name, fm)
		case FieldKeyword:
			fm := bleve.NewTextFieldMapping()
			fm.Analyzer = "keyword"
			fm.Store = stored
			fm.Index = true
			fm.DocValues = true
			doc.AddFieldMappingsAt(name, fm)
		case FieldNumeric:
			fm := bleve.NewNumericFieldMapping()
			fm.Store = stored
			fm.Index = true
			fm.DocValues = true
			doc.AddFieldMappingsAt(name, fm)
		case FieldBoolean:
			fm := bleve.NewBooleanFieldMapping()
			fm.Store = stored
			fm.Index = true
			doc.AddFieldMappingsAt(name, fm)
		}
	}

	idxMapping.DefaultMapping = doc
	return idxMapping, nil
}
