package bert

import "github.com/pkg/errors"

// Request is a BERT-RPC call or cast: {Kind, Module, Function, Arguments}.
type Request struct {
	Kind      string
	Module    string
	Function  string
	Arguments []Term
}

// Term builds the request tuple. The arguments travel as a list.
func (r Request) Term() Term {
	return Tuple(Atom(r.Kind), Atom(r.Module), Atom(r.Function), List(r.Arguments...))
}

// ParseRequest reads a {call|cast, Module, Function, Arguments} tuple.
func ParseRequest(t Term) (Request, error) {
	if t.Tag() != SmallTupleTag || t.Len() != 4 {
		return Request{}, errors.Errorf("bert: request must be a 4-tuple, got %s", t)
	}
	for i := 0; i < 3; i++ {
		if !t.Item(i).IsAtom() {
			return Request{}, errors.Errorf("bert: request element %d is not an atom: %s", i, t.Item(i))
		}
	}
	kind := t.Item(0).Text()
	if kind != "call" && kind != "cast" {
		return Request{}, errors.Errorf("bert: unknown request kind %q", kind)
	}
	args := t.Item(3)
	if !args.IsNil() && args.Tag() != ListTag {
		return Request{}, errors.Errorf("bert: request arguments must be a list, got %s", args)
	}
	return Request{
		Kind:      kind,
		Module:    t.Item(1).Text(),
		Function:  t.Item(2).Text(),
		Arguments: args.Items(),
	}, nil
}

// Reply builds the {reply, Result} response tuple.
func Reply(result Term) Term {
	return Tuple(Atom("reply"), result)
}

// BertNil builds {bert, nil}, the tuple form BERT uses for a null value
// where the bare atom nil would be ambiguous.
func BertNil() Term {
	return Tuple(BertAtom, NilAtom)
}

// IsBertNil reports whether t is the {bert, nil} tuple.
func IsBertNil(t Term) bool {
	return t.Equal(BertNil())
}
