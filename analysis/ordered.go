package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// The dashboard renders map-backed sections (core web vitals, heading tags,
// keyword density) in the order the engine emitted them. A plain Go map
// loses that order, so these types capture the JSON object's key order
// alongside the values. A nil Values map means the field was absent from
// the document, which the renderer treats differently from an empty one.

// StringMap is an order-preserving map<string,string>.
type StringMap struct {
	Keys   []string
	Values map[string]string
}

// Present reports whether the field was present in the source document.
func (m StringMap) Present() bool { return m.Values != nil }

// Len returns the number of entries.
func (m StringMap) Len() int { return len(m.Keys) }

func (m *StringMap) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	m.Values = make(map[string]string)
	return decodeOrdered(data, func(key string, dec *json.Decoder) error {
		var v string
		// Some engines emit bare numbers for metric values.
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			v = string(bytes.Trim(raw, `"`))
			if v == "null" {
				v = ""
			}
		}
		m.Keys = append(m.Keys, key)
		m.Values[key] = v
		return nil
	})
}

func (m StringMap) MarshalJSON() ([]byte, error) {
	return marshalOrdered(m.Keys, func(key string) (any, bool) {
		v, ok := m.Values[key]
		return v, ok
	}, m.Values == nil)
}

// StringListMap is an order-preserving map<string,[]string>.
type StringListMap struct {
	Keys   []string
	Values map[string][]string
}

func (m StringListMap) Present() bool { return m.Values != nil }

func (m *StringListMap) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	m.Values = make(map[string][]string)
	return decodeOrdered(data, func(key string, dec *json.Decoder) error {
		var v []string
		if err := dec.Decode(&v); err != nil {
			return err
		}
		m.Keys = append(m.Keys, key)
		m.Values[key] = v
		return nil
	})
}

func (m StringListMap) MarshalJSON() ([]byte, error) {
	return marshalOrdered(m.Keys, func(key string) (any, bool) {
		v, ok := m.Values[key]
		return v, ok
	}, m.Values == nil)
}

// FloatMap is an order-preserving map<string,float64>.
type FloatMap struct {
	Keys   []string
	Values map[string]float64
}

func (m FloatMap) Present() bool { return m.Values != nil }

func (m FloatMap) Len() int { return len(m.Keys) }

func (m *FloatMap) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	m.Values = make(map[string]float64)
	return decodeOrdered(data, func(key string, dec *json.Decoder) error {
		var v float64
		if err := dec.Decode(&v); err != nil {
			return err
		}
		m.Keys = append(m.Keys, key)
		m.Values[key] = v
		return nil
	})
}

func (m FloatMap) MarshalJSON() ([]byte, error) {
	return marshalOrdered(m.Keys, func(key string) (any, bool) {
		v, ok := m.Values[key]
		return v, ok
	}, m.Values == nil)
}

// decodeOrdered walks a JSON object token by token, handing each key and the
// positioned decoder to fn so the value can be decoded in declaration order.
func decodeOrdered(data []byte, fn func(key string, dec *json.Decoder) error) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected JSON object, got %v", tok)
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", keyTok)
		}
		if err := fn(key, dec); err != nil {
			return fmt.Errorf("decode value for %q: %w", key, err)
		}
	}
	_, err = dec.Token() // closing brace
	return err
}

func marshalOrdered(keys []string, value func(string) (any, bool), null bool) ([]byte, error) {
	if null {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for _, key := range keys {
		v, ok := value(key)
		if !ok {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		kb, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
