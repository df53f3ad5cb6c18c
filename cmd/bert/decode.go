package main

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/davecgh/go-spew/spew"
	bert "github.com/diodechain/gobert/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	json = jsoniter.ConfigCompatibleWithStandardLibrary

	// dumps the fields of a term rather than its String form
	spewConfig = spew.ConfigState{Indent: "  ", DisableMethods: true, DisablePointerAddresses: true}
)

var decodeCmd = &cobra.Command{
	Use:   "decode [FILE]",
	Short: "Print a BERT term in a readable form",
	Long: `Reads one BERT term from FILE or stdin and prints it.

The text format uses Erlang literal notation. The json and yaml formats
project the term onto plain values: tuples and lists become arrays, atoms
become strings (true and false become booleans) and maps with textual
keys become objects. The spew format dumps the decoded Go value.`,
	Example: `bert decode reply.bert
  bert decode --hex --format json < packet.hex
  bert decode --framed --format yaml capture.bin`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, closer, err := openInput(args)
		if err != nil {
			return err
		}
		defer closer()
		return decodeTerm(in, cmd.OutOrStdout(), config)
	},
}

func init() {
	flags := decodeCmd.Flags()
	flags.StringVarP(&config.Format, "format", "f", config.Format, "Output format: text, json, yaml or spew")
	flags.BoolVarP(&config.Compact, "compact", "c", config.Compact, "Write json on a single line")
}

func openInput(args []string) (io.Reader, func(), error) {
	if len(args) == 0 || args[0] == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

// readInput reads at most cfg.MaxInput bytes, decoding hex text when
// cfg.Hex is set.
func readInput(r io.Reader, cfg cliConfig) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, cfg.MaxInput+1))
	if err != nil {
		return nil, errors.Wrap(err, "reading input")
	}
	if int64(len(data)) > cfg.MaxInput {
		return nil, errors.Errorf("input exceeds %d bytes", cfg.MaxInput)
	}
	logrus.Debugf("read %d input bytes", len(data))
	if !cfg.Hex {
		return data, nil
	}
	text := strings.Join(strings.Fields(string(data)), "")
	raw, err := hex.DecodeString(text)
	if err != nil {
		return nil, errors.Wrap(err, "decoding hex input")
	}
	return raw, nil
}

func decodeTerm(r io.Reader, w io.Writer, cfg cliConfig) error {
	data, err := readInput(r, cfg)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return errors.New("empty input: expected BERT data")
	}

	var term bert.Term
	if cfg.Framed {
		term, err = bert.UnmarshalResponse(bytes.NewReader(data))
	} else {
		if len(data) > 1 && bert.Tag(data[1]) == bert.CompressedTag {
			logrus.Debugf("input holds a compressed term")
		}
		term, err = bert.Decode(data)
	}
	if err != nil {
		return errors.Wrap(err, "decoding term")
	}

	logrus.Debugf("decoded %s term, writing %s", term.Tag(), cfg.Format)
	return writeTerm(w, term, cfg)
}

func writeTerm(w io.Writer, term bert.Term, cfg cliConfig) error {
	switch cfg.Format {
	case "text", "":
		_, err := fmt.Fprintln(w, term.String())
		return err
	case "json":
		var (
			out []byte
			err error
		)
		if cfg.Compact {
			out, err = json.Marshal(term.Native())
		} else {
			out, err = json.MarshalIndent(term.Native(), "", "  ")
		}
		if err != nil {
			return errors.Wrap(err, "encoding JSON")
		}
		_, err = fmt.Fprintln(w, string(out))
		return err
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(term.Native()); err != nil {
			return errors.Wrap(err, "encoding YAML")
		}
		return enc.Close()
	case "spew":
		spewConfig.Fdump(w, term)
		return nil
	}
	return errors.Errorf("unknown output format %q", cfg.Format)
}
