// Package bert encodes and decodes the Erlang external term format (BERT).
//
// Terms are built with Tuple, List, Map, Atom, String, Float, Number,
// Bignum and Bin, serialized with Encode and parsed back with Decode:
//
//	data, err := bert.Encode(bert.Tuple(bert.Atom("ok"), bert.Number(42)))
//	term, err := bert.Decode(data)
//
// Every encoded buffer starts with the version byte 131 followed by one
// term. Framing several terms on a stream is left to the caller;
// MarshalResponse and UnmarshalResponse implement the common 4-byte
// length prefix.
package bert
