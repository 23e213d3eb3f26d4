package value

import (
	"bytes"
	"encoding/json"
)

// marshalOrdered hand-builds a JSON object preserving key order, since
// encoding/json's map marshaling sorts keys alphabetically.
func marshalOrdered(names []string, values map[string]interface{}) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range names {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')
		valBytes, err := json.Marshal(values[name])
		if err != nil {
			return nil, err
		}
		buf.Write(valBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
