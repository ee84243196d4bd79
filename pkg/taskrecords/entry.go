package taskrecords

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Entry is one task record as returned by the bulk source.
type Entry struct {
	UUID          string `json:"uuid"`
	FileName      string `json:"file_name"`
	Status        string `json:"status"`
	AudioDuration Scalar `json:"audio_duration"`
	User          string `json:"user"`
	Inicio        string `json:"inicio"`
	Campaign      Scalar `json:"campaign"`
	URL           string `json:"URL"`
}

// Scalar holds a JSON string, number or boolean. It compares by its text
// form and marshals back to the original JSON token.
type Scalar struct {
	text  string
	raw   json.RawMessage
	isStr bool
}

// NewScalar returns a Scalar that marshals as a JSON string, "" included.
func NewScalar(s string) Scalar {
	return Scalar{text: s, isStr: true}
}

func (s Scalar) String() string { return s.text }

// IsZero reports whether s is JSON null or absent.
func (s Scalar) IsZero() bool { return !s.isStr && len(s.raw) == 0 }

func (s *Scalar) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*s = Scalar{}
	case len(data) > 0 && data[0] == '"':
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = NewScalar(str)
	default:
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		switch v := v.(type) {
		case float64:
			*s = Scalar{text: strconv.FormatFloat(v, 'f', -1, 64), raw: bytes.Clone(data)}
		case bool:
			*s = Scalar{text: strconv.FormatBool(v), raw: bytes.Clone(data)}
		default:
			// objects and arrays keep their JSON text
			*s = Scalar{text: string(data), raw: bytes.Clone(data)}
		}
	}
	return nil
}

func (s Scalar) MarshalJSON() ([]byte, error) {
	switch {
	case len(s.raw) > 0:
		return s.raw, nil
	case s.isStr:
		return json.Marshal(s.text)
	}
	return []byte("null"), nil
}
