package main

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"
	"sort"

	bert "github.com/diodechain/gobert/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	numberJSON = jsoniter.Config{UseNumber: true}.Froze()

	stringsAs string
)

var encodeCmd = &cobra.Command{
	Use:   "encode [FILE]",
	Short: "Encode a JSON document as a BERT term",
	Long: `Reads one JSON document from FILE or stdin and writes its BERT encoding.

Objects become maps with binary keys, arrays become lists, integers pick
the smallest integer encoding (arbitrary precision beyond 64 bits), other
numbers become floats, booleans and null become the atoms true, false and
nil. Strings become binaries unless --strings=string or --strings=atom.`,
	Example: `echo '{"ok": [1, 2, 3]}' | bert encode --hex
  bert encode --compress 6 --framed doc.json > doc.bert`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, closer, err := openInput(args)
		if err != nil {
			return err
		}
		defer closer()
		return encodeJSON(in, cmd.OutOrStdout(), config, stringsAs)
	},
}

func init() {
	flags := encodeCmd.Flags()
	flags.IntVar(&config.Compress, "compress", config.Compress, "zlib level for a compressed term, 0 writes it uncompressed")
	flags.StringVar(&stringsAs, "strings", "binary", "Encoding of JSON strings: binary, string or atom")
}

type jsonNumber interface {
	String() string
	Int64() (int64, error)
	Float64() (float64, error)
}

func fromJSON(v interface{}, strs string) (bert.Term, error) {
	switch v := v.(type) {
	case nil:
		return bert.NilAtom, nil
	case bool:
		return bert.Bool(v), nil
	case jsonNumber:
		if n, err := v.Int64(); err == nil {
			return bert.Number(n), nil
		}
		if n, ok := new(big.Int).SetString(v.String(), 10); ok {
			return bert.Bignum(n), nil
		}
		f, err := v.Float64()
		if err != nil {
			return bert.Term{}, errors.Wrapf(err, "number %s", v.String())
		}
		return bert.Float(f), nil
	case string:
		switch strs {
		case "string":
			return bert.String(v), nil
		case "atom":
			return bert.Atom(v), nil
		}
		return bert.Bin(v), nil
	case []interface{}:
		items := make([]bert.Term, 0, len(v))
		for i, item := range v {
			t, err := fromJSON(item, strs)
			if err != nil {
				return bert.Term{}, errors.Wrapf(err, "element %d", i)
			}
			items = append(items, t)
		}
		return bert.List(items...), nil
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]bert.Pair, 0, len(v))
		for _, k := range keys {
			t, err := fromJSON(v[k], strs)
			if err != nil {
				return bert.Term{}, errors.Wrapf(err, "key %q", k)
			}
			pairs = append(pairs, bert.Pair{Key: bert.Bin(k), Value: t})
		}
		return bert.Map(pairs...), nil
	}
	return bert.Term{}, errors.Errorf("unsupported JSON value %T", v)
}

func encodeJSON(r io.Reader, w io.Writer, cfg cliConfig, strs string) error {
	switch strs {
	case "binary", "string", "atom":
	default:
		return errors.Errorf("unknown string encoding %q", strs)
	}

	// --hex applies to the BERT output only.
	data, err := readInput(r, cliConfig{MaxInput: cfg.MaxInput})
	if err != nil {
		return err
	}

	var doc interface{}
	if err := numberJSON.Unmarshal(data, &doc); err != nil {
		return errors.Wrap(err, "parsing JSON")
	}
	term, err := fromJSON(doc, strs)
	if err != nil {
		return err
	}

	var out []byte
	if cfg.Compress != 0 {
		out, err = bert.EncodeCompressed(term, cfg.Compress)
	} else {
		out, err = bert.Encode(term)
	}
	if err != nil {
		return errors.Wrap(err, "encoding term")
	}
	logrus.Debugf("encoded %s term into %d bytes", term.Tag(), len(out))

	if cfg.Framed {
		var buf bytes.Buffer
		if err := bert.WriteFrame(&buf, out); err != nil {
			return err
		}
		out = buf.Bytes()
	}

	if cfg.Hex {
		_, err = fmt.Fprintln(w, hex.EncodeToString(out))
		return err
	}
	_, err = w.Write(out)
	return err
}
