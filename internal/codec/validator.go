package codec

import (
	"bytes"
	_ "embed"
	"errors"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/xerrors"
)

// ErrSchemaInvalid — документ истории не соответствует схеме.
var ErrSchemaInvalid = errors.New("history document does not match schema")

const schemaURL = "history.schema.json"

//go:embed schema/history.schema.json
var historySchema []byte

// Validator проверяет сохраненные документы истории по встроенной JSON-схеме.
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator компилирует встроенную схему.
func NewValidator() (*Validator, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(historySchema))
	if err != nil {
		return nil, xerrors.Errorf("не удалось прочитать схему истории: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, doc); err != nil {
		return nil, xerrors.Errorf("не удалось зарегистрировать схему истории: %w", err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, xerrors.Errorf("не удалось скомпилировать схему истории: %w", err)
	}
	return &Validator{schema: schema}, nil
}

// Validate проверяет документ data[NamespaceKey].
func (v *Validator) Validate(data []byte) error {
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return xerrors.Errorf("%v: %w", err, ErrSchemaInvalid)
	}
	if err := v.schema.Validate(inst); err != nil {
		return xerrors.Errorf("%v: %w", err, ErrSchemaInvalid)
	}
	return nil
}
