package bert

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// String renders t in Erlang literal notation, e.g. {ok,[1,2],<<"x">>}.
func (t Term) String() string {
	var sb strings.Builder
	t.write(&sb)
	return sb.String()
}

func (t Term) write(sb *strings.Builder) {
	if t.bad {
		sb.WriteString("'$bad_number'(")
		sb.WriteString(strconv.FormatFloat(t.float, 'g', -1, 64))
		sb.WriteByte(')')
		return
	}
	switch t.tag {
	case SmallIntTag, IntTag, SmallBignumTag, LargeBignumTag:
		sb.WriteString(t.BigInt().String())
	case NewFloatTag, FloatTag:
		s := strconv.FormatFloat(t.float, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eIN") {
			s += ".0"
		}
		sb.WriteString(s)
	case AtomTag, SmallAtomTag, AtomUTF8Tag, SmallAtomUTF8Tag:
		writeAtom(sb, string(t.data))
	case StringTag:
		sb.WriteString(strconv.Quote(string(t.data)))
	case BinTag:
		sb.WriteString("<<")
		writeBinary(sb, t.data)
		sb.WriteString(">>")
	case BitTag:
		sb.WriteString("<<")
		for i, c := range t.data {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(strconv.Itoa(int(c)))
			if i == len(t.data)-1 {
				sb.WriteByte(':')
				sb.WriteString(strconv.Itoa(int(t.sign)))
			}
		}
		sb.WriteString(">>")
	case NilTag:
		sb.WriteString("[]")
	case SmallTupleTag, LargeTupleTag:
		sb.WriteByte('{')
		writeTerms(sb, t.items)
		sb.WriteByte('}')
	case ListTag:
		sb.WriteByte('[')
		writeTerms(sb, t.items)
		sb.WriteByte(']')
	case MapTag:
		sb.WriteString("#{")
		for i, p := range t.pairs {
			if i > 0 {
				sb.WriteByte(',')
			}
			p.Key.write(sb)
			sb.WriteString(" => ")
			p.Value.write(sb)
		}
		sb.WriteByte('}')
	case NewReferenceTag, NewerReferenceTag:
		sb.WriteString("#Ref<")
		writeTerms(sb, t.items)
		sb.WriteByte('>')
	default:
		sb.WriteString("'$unknown'(")
		sb.WriteString(strconv.Itoa(int(t.tag)))
		sb.WriteByte(')')
	}
}

func writeTerms(sb *strings.Builder, terms []Term) {
	for i, item := range terms {
		if i > 0 {
			sb.WriteByte(',')
		}
		item.write(sb)
	}
}

func writeAtom(sb *strings.Builder, name string) {
	if isBareAtom(name) {
		sb.WriteString(name)
		return
	}
	sb.WriteByte('\'')
	sb.WriteString(strings.ReplaceAll(strings.ReplaceAll(name, `\`, `\\`), `'`, `\'`))
	sb.WriteByte('\'')
}

func isBareAtom(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		if i == 0 && !unicode.IsLower(r) {
			return false
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '@' {
			return false
		}
	}
	return true
}

func writeBinary(sb *strings.Builder, b []byte) {
	if isPrintable(b) {
		sb.WriteString(strconv.Quote(string(b)))
		return
	}
	for i, c := range b {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(int(c)))
	}
}

func isPrintable(b []byte) bool {
	if len(b) == 0 || !utf8.Valid(b) {
		return false
	}
	for _, r := range string(b) {
		if !unicode.IsPrint(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// Native projects t onto plain Go values suitable for JSON or YAML
// output. Integers become int64 (or *big.Int beyond that range), atoms
// true and false become bools, other atoms, strings and UTF-8 binaries
// become strings, tuples and lists become slices and maps with only
// textual keys become map[string]interface{}. Maps with other keys become
// a slice of [key, value] pairs.
func (t Term) Native() interface{} {
	switch t.tag {
	case SmallIntTag, IntTag, SmallBignumTag, LargeBignumTag:
		if t.bad {
			return t.float
		}
		if n, ok := t.Int(); ok {
			return n
		}
		return t.BigInt()
	case NewFloatTag, FloatTag:
		return t.float
	case AtomTag, SmallAtomTag, AtomUTF8Tag, SmallAtomUTF8Tag:
		switch string(t.data) {
		case "true":
			return true
		case "false":
			return false
		}
		return string(t.data)
	case StringTag, BinTag:
		if utf8.Valid(t.data) {
			return string(t.data)
		}
		return t.Bytes()
	case BitTag:
		return map[string]interface{}{"bytes": t.Bytes(), "bits": int(t.sign)}
	case NilTag:
		return []interface{}{}
	case SmallTupleTag, LargeTupleTag, ListTag:
		out := make([]interface{}, 0, len(t.items))
		for _, item := range t.items {
			out = append(out, item.Native())
		}
		return out
	case MapTag:
		return nativeMap(t.pairs)
	case NewReferenceTag, NewerReferenceTag:
		return map[string]interface{}{"ref": t.items[0].Native()}
	}
	return nil
}

func nativeMap(pairs []Pair) interface{} {
	byName := make(map[string]interface{}, len(pairs))
	for _, p := range pairs {
		key, ok := p.Key.Native().(string)
		if !ok {
			break
		}
		byName[key] = p.Value.Native()
	}
	if len(byName) == len(pairs) {
		return byName
	}
	out := make([]interface{}, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, []interface{}{p.Key.Native(), p.Value.Native()})
	}
	return out
}
