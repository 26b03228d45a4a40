package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/youxinddd/dappctl/codec"
)

var CodecCmd = &cli.Command{
	Name:  "codec",
	Usage: "Encode and decode blog post contents offline",
	Subcommands: []*cli.Command{
		{
			Name:      "encode",
			Usage:     "gzip and base64 encode text (reads stdin without an argument)",
			ArgsUsage: "[text]",
			Action: func(c *cli.Context) error {
				text, err := codecInput(c)
				if err != nil {
					return err
				}
				encoded, err := codec.Compress(text)
				if err != nil {
					return err
				}
				fmt.Fprintln(c.App.Writer, encoded)
				return nil
			},
		},
		{
			Name:      "decode",
			Usage:     "Decode text produced by encode (reads stdin without an argument)",
			ArgsUsage: "[encoded]",
			Action: func(c *cli.Context) error {
				text, err := codecInput(c)
				if err != nil {
					return err
				}
				decoded, err := codec.Decompress(strings.TrimSpace(text))
				if err != nil {
					return err
				}
				fmt.Fprintln(c.App.Writer, decoded)
				return nil
			},
		},
	},
}

func codecInput(c *cli.Context) (string, error) {
	if c.NArg() > 0 && c.Args().First() != "-" {
		return strings.Join(c.Args().Slice(), " "), nil
	}
	data, err := io.ReadAll(c.App.Reader)
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}
