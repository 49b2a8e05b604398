package domain

import (
	"bytes"
	"encoding/json"
	"sort"
)

// FieldErrors maps a form field name to its ordered error messages.
type FieldErrors map[string][]string

// fieldOrder is the order fields appear on the invoice form.
var fieldOrder = map[string]int{
	"customerId": 0,
	"amount":     1,
	"status":     2,
}

func fieldRank(field string) int {
	if rank, ok := fieldOrder[field]; ok {
		return rank
	}
	return len(fieldOrder)
}

// MarshalJSON writes fields in form order instead of map order, so clients
// can show the first error first.
func (e FieldErrors) MarshalJSON() ([]byte, error) {
	if e == nil {
		return []byte("null"), nil
	}

	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ri, rj := fieldRank(keys[i]), fieldRank(keys[j])
		if ri != rj {
			return ri < rj
		}
		return keys[i] < keys[j]
	})

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}

		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')

		valueBytes, err := json.Marshal(e[k])
		if err != nil {
			return nil, err
		}
		buf.Write(valueBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

type RedirectType int

const (
	RedirectPush RedirectType = iota
	RedirectReplace
)

func (t RedirectType) String() string {
	switch t {
	case RedirectReplace:
		return "replace"
	case RedirectPush:
		return "push"
	default:
		return "unknown"
	}
}

type Redirect struct {
	Location string       `json:"location"`
	Type     RedirectType `json:"-"`
}

// ActionState is the outcome of an invoice mutation. A zero value means
// success without navigation.
type ActionState struct {
	Errors   FieldErrors `json:"error,omitempty"`
	Message  string      `json:"message,omitempty"`
	Redirect *Redirect   `json:"-"`
}

func (s ActionState) Failed() bool {
	return s.Message != "" || len(s.Errors) > 0
}
