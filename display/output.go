package display

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/teranos/replaydash/errors"
)

// MarshalJSON marshals with pretty formatting.
func MarshalJSON(v interface{}) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

// MarshalYAML marshals v as YAML using its JSON field names, so both
// encodings agree on keys.
func MarshalYAML(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	return yaml.Marshal(generic)
}

// Encode writes v to w in a machine format. FormatText falls back to JSON.
func Encode(w io.Writer, format Format, v interface{}) error {
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatYAML:
		data, err = MarshalYAML(v)
	default:
		data, err = MarshalJSON(v)
		data = append(data, '\n')
	}
	if err != nil {
		return errors.Wrapf(err, "failed to marshal %s", format)
	}
	_, err = w.Write(data)
	return err
}

// OutputJSON prints v as JSON to stdout.
func OutputJSON(v interface{}) error {
	return Encode(os.Stdout, FormatJSON, v)
}

// Render prints v in a machine format, or calls human for text output.
func Render(w io.Writer, format Format, v interface{}, human func(io.Writer) error) error {
	if format == FormatText && human != nil {
		return human(w)
	}
	return Encode(w, format, v)
}

// KeyValues prints aligned "key: value" lines.
func KeyValues(w io.Writer, pairs [][2]string) error {
	width := 0
	for _, p := range pairs {
		width = max(width, len(p[0]))
	}
	for _, p := range pairs {
		if _, err := fmt.Fprintf(w, "%-*s  %s\n", width+1, p[0]+":", p[1]); err != nil {
			return err
		}
	}
	return nil
}
