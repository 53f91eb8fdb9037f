package asf

import (
	"fmt"
	"strings"
)

// Field entry in the inspection table of an object. Offset is
// relative to the start of the object.
type Field struct {
	Name   string
	Offset int
	Value  interface{}
}

func (f Field) String() string {
	switch v := f.Value.(type) {
	case []byte:
		if len(v) > 32 {
			return fmt.Sprintf("%s: [% X ...] (%d bytes)", f.Name, v[:32], len(v))
		}
		return fmt.Sprintf("%s: [% X]", f.Name, v)
	case string:
		return fmt.Sprintf("%s: %q", f.Name, v)
	case GUID:
		return fmt.Sprintf("%s: %v (%s)", f.Name, v, Name(v))
	}
	return fmt.Sprintf("%s: %v", f.Name, f.Value)
}

// FormatFields returns a printable table of the object fields.
func FormatFields(o Object) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %v pos=%d size=%d\n", o.Name(), o.GUID(), o.Position(), o.Size())
	for _, f := range o.Fields() {
		fmt.Fprintf(&b, "  %6d  %v\n", f.Offset, f)
	}
	return b.String()
}
