package httpx

import (
	"iter"
	"net/textproto"
	"strings"
)

// Header holds request header fields keyed by canonical name. A field
// repeated on the wire keeps only its last value.
type Header map[string]string

func (h Header) Get(key string) string {
	if h == nil {
		return ""
	}
	return h[textproto.CanonicalMIMEHeaderKey(key)]
}

func (h Header) Set(key, value string) {
	if h == nil {
		return
	}
	h[textproto.CanonicalMIMEHeaderKey(key)] = value
}

func (h Header) Del(key string) {
	if h == nil {
		return
	}
	delete(h, textproto.CanonicalMIMEHeaderKey(key))
}

// Field is one response header field.
type Field struct {
	Name  string
	Value string
}

// Fields is an ordered list of response header fields. It is written to
// the wire in slice order. Names compare case-insensitively.
type Fields []Field

func (f Fields) Get(name string) string {
	for _, x := range f {
		if strings.EqualFold(x.Name, name) {
			return x.Value
		}
	}
	return ""
}

// Set replaces the value of the first field called name, keeping its
// position, and removes any later fields of that name. A new name is
// appended.
func (f *Fields) Set(name, value string) {
	out := (*f)[:0]
	found := false
	for _, x := range *f {
		if strings.EqualFold(x.Name, name) {
			if found {
				continue
			}
			found = true
			x.Value = value
		}
		out = append(out, x)
	}
	if !found {
		out = append(out, Field{Name: name, Value: value})
	}
	*f = out
}

func (f *Fields) Add(name, value string) {
	*f = append(*f, Field{Name: name, Value: value})
}

func (f *Fields) Del(name string) {
	out := (*f)[:0]
	for _, x := range *f {
		if !strings.EqualFold(x.Name, name) {
			out = append(out, x)
		}
	}
	*f = out
}

// All yields the fields in order.
func (f Fields) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, x := range f {
			if !yield(x.Name, x.Value) {
				return
			}
		}
	}
}
