package metric

import (
	"bytes"
	"sort"

	"github.com/go-logfmt/logfmt"
)

// Name identifies a metric emitted by the monitor, such as phi or heartbeat_count.  Labels
// locate the monitored resource and are rendered in sorted key order using logfmt, e.g.
// phi[id=web1 source=probe]
type Name struct {
	name   string
	labels map[string]string
}

// NewName returns a new name with a copy of the supplied labels
func NewName(name string, labels map[string]string) Name {
	n := Name{name: name, labels: make(map[string]string, len(labels))}
	for k, v := range labels {
		n.labels[k] = v
	}
	return n
}

// With returns a copy of the name with an additional label.  An existing label with the same
// key is replaced.
func (n Name) With(key, value string) Name {
	c := NewName(n.name, n.labels)
	c.labels[key] = value
	return c
}

// Rename returns a copy of the name that keeps the labels under a different metric name
func (n Name) Rename(name string) Name {
	return NewName(name, n.labels)
}

// Labels returns a copy of the labels
func (n Name) Labels() map[string]string {
	return NewName(n.name, n.labels).labels
}

// String marshals the name, e.g. heartbeat_count[id=web1 source=command]
func (n Name) String() string {
	b, err := MarshalLabels(n.labels)
	if err != nil {
		return n.name
	}
	return n.name + string(b)
}

// MarshalLabels encodes labels as bracketed logfmt key/value pairs in sorted key order.  Empty
// label sets encode to nothing.
func MarshalLabels(labels map[string]string) ([]byte, error) {
	if len(labels) == 0 {
		return []byte{}, nil
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b bytes.Buffer
	b.WriteByte('[')
	e := logfmt.NewEncoder(&b)
	for _, k := range keys {
		if err := e.EncodeKeyval(k, labels[k]); err != nil {
			return nil, err
		}
	}
	b.WriteByte(']')
	return b.Bytes(), nil
}
