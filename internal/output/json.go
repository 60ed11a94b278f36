package output

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"
)

// JSONFormatter renders reports as indented JSON.
type JSONFormatter struct{}

func (f *JSONFormatter) Format(w io.Writer, reports []FileReport) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(reports)
}

// YAMLFormatter renders reports as YAML.
type YAMLFormatter struct{}

func (f *YAMLFormatter) Format(w io.Writer, reports []FileReport) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(reports); err != nil {
		return err
	}
	return enc.Close()
}
