package gimple

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// jsonNode is a decoded JSON value.  Unlike a map, objects keep every member in
// order including duplicated keys: the plugin writes constants as
// `{"type": "integer_cst", "value": 1, "type": {...}}` where the first `type`
// is the tree code and the second is the type of the constant.
type jsonNode struct {
	kind    int
	members []jsonMember
	elems   []*jsonNode
	str     string
	num     json.Number
	boolean bool
}

type jsonMember struct {
	key   string
	value *jsonNode
}

// Enumeration of JSON value kinds.
const (
	jsonNull = iota
	jsonObject
	jsonArray
	jsonString
	jsonNumber
	jsonBool
)

// parseNode reads the next complete value from the decoder.
func parseNode(dec *json.Decoder) (*jsonNode, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			n := &jsonNode{kind: jsonObject}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}

				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("expected object key, got %v", keyTok)
				}

				value, err := parseNode(dec)
				if err != nil {
					return nil, err
				}

				n.members = append(n.members, jsonMember{key: key, value: value})
			}

			// closing brace
			if _, err := dec.Token(); err != nil {
				return nil, err
			}

			return n, nil
		case '[':
			n := &jsonNode{kind: jsonArray}
			for dec.More() {
				elem, err := parseNode(dec)
				if err != nil {
					return nil, err
				}

				n.elems = append(n.elems, elem)
			}

			if _, err := dec.Token(); err != nil {
				return nil, err
			}

			return n, nil
		}

		return nil, fmt.Errorf("unexpected delimiter %v", t)
	case string:
		return &jsonNode{kind: jsonString, str: t}, nil
	case json.Number:
		return &jsonNode{kind: jsonNumber, num: t}, nil
	case bool:
		return &jsonNode{kind: jsonBool, boolean: t}, nil
	case nil:
		return &jsonNode{kind: jsonNull}, nil
	}

	return nil, errors.New("unexpected token")
}

// -----------------------------------------------------------------------------

// field returns the first member with the given key that is not null.
func (n *jsonNode) field(key string) *jsonNode {
	for _, m := range n.members {
		if m.key == key && m.value.kind != jsonNull {
			return m.value
		}
	}

	return nil
}

// fieldOfKind returns the first member with the given key and JSON kind.
func (n *jsonNode) fieldOfKind(key string, kind int) *jsonNode {
	for _, m := range n.members {
		if m.key == key && m.value.kind == kind {
			return m.value
		}
	}

	return nil
}

func (n *jsonNode) object(key string) *jsonNode {
	return n.fieldOfKind(key, jsonObject)
}

func (n *jsonNode) array(key string) []*jsonNode {
	if arr := n.fieldOfKind(key, jsonArray); arr != nil {
		return arr.elems
	}

	return nil
}

func (n *jsonNode) string(key string) string {
	if s := n.fieldOfKind(key, jsonString); s != nil {
		return s.str
	}

	return ""
}

func (n *jsonNode) int(key string) int {
	if num := n.fieldOfKind(key, jsonNumber); num != nil {
		return int(num.asInt64())
	}

	return 0
}

func (n *jsonNode) bool(key string) bool {
	if b := n.fieldOfKind(key, jsonBool); b != nil {
		return b.boolean
	}

	return false
}

// asInt64 converts a number node to an integer.  Integer constants wider than
// 64 bits do not occur in the dumps since the plugin writes TREE_INT_CST_LOW.
func (n *jsonNode) asInt64() int64 {
	if n == nil || n.kind != jsonNumber {
		return 0
	}

	if i, err := n.num.Int64(); err == nil {
		return i
	}

	if u, err := strconv.ParseUint(n.num.String(), 10, 64); err == nil {
		return int64(u)
	}

	f, _ := n.num.Float64()
	return int64(f)
}
