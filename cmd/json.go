package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/youxinddd/dappctl/assertions"
	"github.com/youxinddd/dappctl/chain"
	"github.com/youxinddd/dappctl/contracts"
	"github.com/youxinddd/dappctl/events"
)

var JSONCmd = &cli.Command{
	Name:  "json",
	Usage: "Read and write the JsonStorageV1 document",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "address",
			Usage: "JsonStorageV1 proxy address (default: workspace record or network config)",
		},
	},
	Subcommands: []*cli.Command{
		{
			Name:      "set",
			Usage:     "Replace the stored document",
			ArgsUsage: "[json]",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "file",
					Usage: "Read the document from a file instead of the argument",
				},
				&cli.StringFlag{
					Name:  "tag",
					Usage: "Action tag recorded in the JsonChanged event",
					Value: "update",
				},
				&cli.BoolFlag{
					Name:  "verify",
					Usage: "Read the document back after the write",
				},
			},
			Action: setJSON,
		},
		{
			Name:  "get",
			Usage: "Print the stored document",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "pretty",
					Usage: "Indent the document",
				},
			},
			Action: getJSON,
		},
		{
			Name:  "history",
			Usage: "Show JsonChanged events in the recent block window",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "operator",
					Usage: "Only changes made by this address",
				},
				&cli.StringFlag{
					Name:  "tag",
					Usage: "Only changes with this action tag (text or 0x bytes32)",
				},
			},
			Action: jsonHistory,
		},
	},
}

func jsonStorage(c *cli.Context, cl *chain.Client) (*contracts.JsonStorage, error) {
	addr, err := resolveAddress(c, jsonStorageName)
	if err != nil {
		return nil, err
	}
	a, err := artifacts.Get(contracts.JsonStorageV1)
	if err != nil {
		return nil, err
	}
	return contracts.NewJsonStorage(addr, a.ABI, cl.Backend()), nil
}

func readDocument(c *cli.Context) (string, error) {
	if path := c.String("file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", path, err)
		}
		return string(bytes.TrimSpace(data)), nil
	}
	if c.NArg() == 0 {
		return "", fmt.Errorf("json document or --file required")
	}
	return c.Args().First(), nil
}

func setJSON(c *cli.Context) error {
	doc, err := readDocument(c)
	if err != nil {
		return err
	}
	if !json.Valid([]byte(doc)) {
		logger.Warn("document is not valid JSON, storing it anyway")
	}

	ctx, cancel := txContext(c)
	defer cancel()

	cl, _, opts, err := signer(ctx)
	if err != nil {
		return err
	}
	store, err := jsonStorage(c, cl)
	if err != nil {
		return err
	}

	w := c.App.Writer
	tx, err := store.SetJson(opts, doc, c.String("tag"))
	if err != nil {
		return err
	}
	if _, err := submit(ctx, w, cl, "setJson", tx); err != nil {
		return err
	}
	fmt.Fprintln(w, "JSON updated")

	if !c.Bool("verify") {
		return nil
	}
	stored, err := store.GetJson(ctx)
	if err != nil {
		return err
	}
	assertions.Always(stored == doc, "stored JSON reads back as written", map[string]any{
		"contract": store.Address.Hex(),
		"tx":       tx.Hash().Hex(),
	})
	if stored != doc {
		return fmt.Errorf("read back differs from the written document")
	}
	fmt.Fprintln(w, "Verified")
	return nil
}

func getJSON(c *cli.Context) error {
	cl, err := connect(c.Context)
	if err != nil {
		return err
	}
	store, err := jsonStorage(c, cl)
	if err != nil {
		return err
	}

	doc, err := store.GetJson(c.Context)
	if err != nil {
		return err
	}

	w := c.App.Writer
	if c.Bool("pretty") {
		var buf bytes.Buffer
		if err := json.Indent(&buf, []byte(doc), "", "  "); err == nil {
			doc = buf.String()
		}
	}
	heading(w, "Stored JSON:")
	fmt.Fprintln(w, doc)
	return nil
}

func jsonHistory(c *cli.Context) error {
	cl, err := connect(c.Context)
	if err != nil {
		return err
	}
	store, err := jsonStorage(c, cl)
	if err != nil {
		return err
	}
	ev, err := store.Event("JsonChanged")
	if err != nil {
		return err
	}

	f := events.Filter{Address: store.Address, Event: ev, Args: map[string]string{}}
	if op := c.String("operator"); op != "" {
		f.Args["operator"] = op
	}
	if tag := c.String("tag"); tag != "" {
		f.Args["actionTag"] = tag
	}

	s, closeCache := scanner(cl)
	defer closeCache()

	latest, err := s.Latest(c.Context)
	if err != nil {
		return err
	}
	w := c.App.Writer
	fmt.Fprintf(w, "Latest block: %d\n", latest)

	records, err := s.Scan(c.Context, f, []events.Range{events.LastBlocks(latest, cfg.EventWindow)})
	if err != nil {
		return err
	}
	printRecords(w, records)
	return nil
}
