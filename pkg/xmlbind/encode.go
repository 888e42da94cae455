package xmlbind

import (
	"sort"
	"strconv"
	"time"

	"github.com/illmade-knight/go-mirth/pkg/xmlmap"
)

// EpochMillisValue encodes an instant as the engine's timestamp element:
// epoch milliseconds under "time" with a UTC timezone marker.
func EpochMillisValue(t time.Time) *xmlmap.Object {
	o := xmlmap.NewObject()
	o.Set("time", strconv.FormatInt(t.UnixMilli(), 10))
	o.Set("timezone", "UTC")
	return o
}

// StringMapValue encodes a flat string map as the entry-encoded hashmap
// element, one single-tag string pair per entry. Keys are emitted in sorted
// order so the output is deterministic; an empty map encodes to nil, which
// serializes as a self-closing element.
func StringMapValue(m map[string]string) xmlmap.Value {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make(xmlmap.List, 0, len(keys))
	for _, k := range keys {
		entry := xmlmap.NewObject()
		entry.Set("string", xmlmap.List{k, m[k]})
		entries = append(entries, entry)
	}
	o := xmlmap.NewObject()
	o.Set("entry", entries)
	return o
}
