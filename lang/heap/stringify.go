package heap

import (
	"strconv"
	"strings"

	"golang.org/x/exp/slices"
)

// String renders an Instance per §4.3: "<classname> instance" when it
// belongs to a class, or a sorted {key: value, …} dump (string values
// quoted) for the classless instances backing array and map literals.
func (i *Instance) String() string {
	if i.Class != nil {
		return i.Class.Name + " instance"
	}

	keys := i.Fields.Keys()
	slices.Sort(keys)

	var sb strings.Builder
	sb.WriteByte('{')
	for idx, k := range keys {
		if idx > 0 {
			sb.WriteString(", ")
		}
		v, _ := i.Fields.Get(k)
		sb.WriteString(k)
		sb.WriteString(": ")
		if v.IsObject() {
			if s, ok := v.AsObject().(*String); ok {
				sb.WriteString(strconv.Quote(s.s))
				continue
			}
		}
		sb.WriteString(v.String())
	}
	sb.WriteByte('}')
	return sb.String()
}
