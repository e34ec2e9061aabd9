package postgresadapter

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// jsonMap stores an open key/value document in a JSONB column.
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
	var raw []byte
	switch typed := value.(type) {
	case nil:
		*m = jsonMap{}
		return nil
	case []byte:
		raw = typed
	case string:
		raw = []byte(typed)
	default:
		return fmt.Errorf("scan jsonb: unsupported type %T", value)
	}
	out := jsonMap{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return err
		}
	}
	*m = out
	return nil
}

func (jsonMap) GormDataType() string {
	return "jsonb"
}
