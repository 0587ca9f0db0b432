package analyzer

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/hto/internal/typeinfo"
)

// Fingerprint returns a deterministic hex digest of t's structure. Two
// descriptors with the same fingerprint synthesize to the same schema.
// Union and intersection members are order-insensitive; object properties
// are compared by name.
func Fingerprint(t typeinfo.TypeDescriptor) string {
	c := &canonCtx{stack: map[typeinfo.TypeDescriptor]int{}}
	var b strings.Builder
	c.write(&b, t)
	sum := sha256.Sum256([]byte(b.String()))
	return fmt.Sprintf("%x", sum[:])
}

type canonCtx struct {
	stack map[typeinfo.TypeDescriptor]int
}

func (c *canonCtx) write(b *strings.Builder, t typeinfo.TypeDescriptor) {
	if t == nil {
		b.WriteString("nil")
		return
	}
	// Back-reference to a type still being encoded.
	if depth, ok := c.stack[t]; ok {
		fmt.Fprintf(b, "@%d", depth)
		return
	}
	c.stack[t] = len(c.stack)
	defer delete(c.stack, t)

	b.WriteString(t.Kind().String())
	if name := t.Name(); name != "" {
		fmt.Fprintf(b, "<%s>", name)
	}
	switch t.Kind() {
	case typeinfo.KindLiteral:
		v, _ := t.Literal()
		fmt.Fprintf(b, "(%T:%v)", v, v)
	case typeinfo.KindArray:
		b.WriteByte('[')
		c.write(b, t.ElementType())
		b.WriteByte(']')
	case typeinfo.KindUnion, typeinfo.KindIntersection:
		members := t.Members()
		parts := make([]string, 0, len(members))
		for _, m := range members {
			var mb strings.Builder
			c.write(&mb, m)
			parts = append(parts, mb.String())
		}
		sort.Strings(parts)
		b.WriteString("(" + strings.Join(parts, "|") + ")")
	case typeinfo.KindObject:
		c.writeMembers(b, t)
	}
}

func (c *canonCtx) writeMembers(b *strings.Builder, t typeinfo.TypeDescriptor) {
	props := t.Properties()
	sort.SliceStable(props, func(i, j int) bool { return props[i].Name < props[j].Name })
	b.WriteByte('{')
	for _, p := range props {
		b.WriteString(p.Name)
		if p.Optional {
			b.WriteByte('?')
		}
		b.WriteByte(':')
		c.write(b, p.Type)
		b.WriteByte(';')
	}
	for _, sig := range t.IndexSignatures() {
		b.WriteByte('[')
		c.write(b, sig.Key)
		b.WriteString("]:")
		c.write(b, sig.Value)
		b.WriteByte(';')
	}
	b.WriteByte('}')
}
