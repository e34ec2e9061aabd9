package postgresadapter

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// jsonMap stores the ai_preferences document.
type jsonMap map[string]any

func (m jsonMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(map[string]any(m))
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

func (m *jsonMap) Scan(value any) error {
	out := jsonMap{}
	if err := scanJSON(value, &out); err != nil {
		return err
	}
	*m = out
	return nil
}

func (jsonMap) GormDataType() string {
	return "jsonb"
}

// stringList stores product image URLs as a JSONB array.
type stringList []string

func (l stringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	raw, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

func (l *stringList) Scan(value any) error {
	out := stringList{}
	if err := scanJSON(value, &out); err != nil {
		return err
	}
	*l = out
	return nil
}

func (stringList) GormDataType() string {
	return "jsonb"
}

func scanJSON(value any, target any) error {
	var raw []byte
	switch typed := value.(type) {
	case nil:
		return nil
	case []byte:
		raw = typed
	case string:
		raw = []byte(typed)
	default:
		return fmt.Errorf("scan jsonb: unsupported type %T", value)
	}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, target)
}
