package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/youxinddd/dappctl/assertions"
	"github.com/youxinddd/dappctl/events"
)

var EventsCmd = &cli.Command{
	Name:  "events",
	Usage: "Search and follow contract events",
	Subcommands: []*cli.Command{
		{
			Name:  "watch",
			Usage: "Poll for new events and print them as they are mined",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "contract",
					Usage:    "Contract name or address",
					Required: true,
				},
				&cli.StringFlag{
					Name:     "event",
					Usage:    "Event name, e.g. Comment, NFTDrawn, JsonChanged",
					Required: true,
				},
				&cli.StringFlag{
					Name:  "abi",
					Usage: "Artifact providing the ABI (required for raw addresses)",
				},
				&cli.StringSliceFlag{
					Name:  "arg",
					Usage: "Indexed argument filter name=value (can specify multiple)",
				},
				&cli.Uint64Flag{
					Name:  "from-block",
					Usage: "Deliver events after this block (default: current head)",
				},
				&cli.DurationFlag{
					Name:  "interval",
					Usage: "Polling interval (default: poll_interval from the config)",
				},
			},
			Action: watchEvents,
		},
		{
			Name:  "search",
			Usage: "Search past events in windows of event_span blocks",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "contract",
					Usage:    "Contract name or address",
					Required: true,
				},
				&cli.StringFlag{
					Name:     "event",
					Usage:    "Event name",
					Required: true,
				},
				&cli.StringFlag{
					Name:  "abi",
					Usage: "Artifact providing the ABI (required for raw addresses)",
				},
				&cli.StringSliceFlag{
					Name:  "arg",
					Usage: "Indexed argument filter name=value (can specify multiple)",
				},
				&cli.IntFlag{
					Name:  "windows",
					Usage: "Number of windows to scan",
					Value: 1,
				},
			},
			Action: searchEvents,
		},
	},
}

func eventFilter(c *cli.Context) (events.Filter, error) {
	addr, artifactName, err := resolveTarget(c, c.String("contract"))
	if err != nil {
		return events.Filter{}, err
	}
	a, err := artifacts.Get(artifactName)
	if err != nil {
		return events.Filter{}, err
	}
	ev, err := abiEvent(a.ABI, c.String("event"))
	if err != nil {
		return events.Filter{}, fmt.Errorf("%s: %w", artifactName, err)
	}
	args, err := events.ParseArgs(c.StringSlice("arg"))
	if err != nil {
		return events.Filter{}, err
	}
	return events.Filter{Address: addr, Event: ev, Args: args}, nil
}

func watchEvents(c *cli.Context) error {
	f, err := eventFilter(c)
	if err != nil {
		return err
	}
	cl, err := connect(c.Context)
	if err != nil {
		return err
	}

	interval := cfg.PollInterval
	if c.IsSet("interval") {
		interval = c.Duration("interval")
	}

	// Set up signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := c.App.Writer
	watcher := events.NewWatcher(cl.Backend(), interval, cfg.EventSpan, logger)
	return watcher.Run(ctx, f, c.Uint64("from-block"), func(r events.Record) error {
		fmt.Fprintln(w, formatRecord(r))
		return nil
	})
}

func searchEvents(c *cli.Context) error {
	f, err := eventFilter(c)
	if err != nil {
		return err
	}
	cl, err := connect(c.Context)
	if err != nil {
		return err
	}

	s, closeCache := scanner(cl)
	defer closeCache()

	latest, err := s.Latest(c.Context)
	if err != nil {
		return err
	}
	w := c.App.Writer
	fmt.Fprintf(w, "Latest block: %d\n", latest)

	records, err := s.Scan(c.Context, f, events.Windows(latest, cfg.EventSpan, c.Int("windows")))
	if err != nil {
		return err
	}
	assertions.Sometimes(len(records) > 0, "event search finds records", map[string]any{
		"event":    f.Event.Name,
		"contract": f.Address.Hex(),
	})
	printRecords(w, records)
	return nil
}
