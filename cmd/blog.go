package cmd

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/urfave/cli/v2"

	"github.com/youxinddd/dappctl/assertions"
	"github.com/youxinddd/dappctl/chain"
	"github.com/youxinddd/dappctl/codec"
	"github.com/youxinddd/dappctl/config"
	"github.com/youxinddd/dappctl/contracts"
	"github.com/youxinddd/dappctl/events"
)

func pageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.Int64Flag{
			Name:  "offset",
			Usage: "Index of the first post",
		},
		&cli.Int64Flag{
			Name:  "limit",
			Usage: "Maximum number of posts",
			Value: 10,
		},
		&cli.BoolFlag{
			Name:  "raw",
			Usage: "Print post contents as stored, without decoding",
		},
	}
}

var BlogCmd = &cli.Command{
	Name:  "blog",
	Usage: "Interact with the BlogPlatform proxy",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "address",
			Usage: "BlogPlatform proxy address (default: workspace record or network config)",
		},
	},
	Subcommands: []*cli.Command{
		{
			Name:  "post",
			Usage: "Create a post; content is gzip+base64 encoded before sending",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "title", Usage: "Post title", Required: true},
				&cli.StringFlag{Name: "content", Usage: "Post content", Required: true},
				&cli.StringFlag{Name: "image", Usage: "Cover image URL"},
				&cli.BoolFlag{Name: "raw", Usage: "Send content without encoding"},
			},
			Action: createPost,
		},
		{
			Name:      "comment",
			Usage:     "Comment on a post",
			ArgsUsage: "<post-id> <content>",
			Action:    addComment,
		},
		{
			Name:  "profile",
			Usage: "User profiles",
			Subcommands: []*cli.Command{
				{
					Name:  "set",
					Usage: "Set the profile of the selected account",
					Flags: []cli.Flag{
						&cli.StringFlag{Name: "nickname", Required: true},
						&cli.StringFlag{Name: "avatar", Usage: "Avatar image URL"},
						&cli.StringFlag{Name: "bio"},
					},
					Action: setProfile,
				},
				{
					Name:      "get",
					Usage:     "Show a user's profile",
					ArgsUsage: "[user]",
					Action:    getProfile,
				},
			},
		},
		{
			Name:   "posts",
			Usage:  "List posts",
			Flags:  pageFlags(),
			Action: listPosts,
		},
		{
			Name:      "user-posts",
			Usage:     "List the posts of one user",
			ArgsUsage: "[user]",
			Flags:     pageFlags(),
			Action:    listUserPosts,
		},
		{
			Name:      "comments",
			Usage:     "Show Comment events of a post in the recent block window",
			ArgsUsage: "<post-id>",
			Action:    listComments,
		},
		{
			Name:  "prizes",
			Usage: "Draw prize pool",
			Subcommands: []*cli.Command{
				{
					Name:  "add",
					Usage: "Add prizes from a YAML file (default: built-in prize list)",
					Flags: []cli.Flag{
						&cli.StringFlag{Name: "file", Usage: "Prize list YAML"},
					},
					Action: addPrizes,
				},
				{
					Name:   "list",
					Usage:  "Show the prize list",
					Action: listPrizes,
				},
			},
		},
		{
			Name:   "draw",
			Usage:  "Draw a prize NFT",
			Action: drawPrize,
		},
		{
			Name:  "draws",
			Usage: "Show NFTDrawn events, walking back in windows of event_span blocks",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  "windows",
					Usage: "Number of windows to scan",
					Value: 1,
				},
				&cli.StringFlag{
					Name:  "user",
					Usage: "Only draws by this address",
				},
			},
			Action: listDraws,
		},
		{
			Name:      "nfts",
			Usage:     "Show the prize NFTs owned by a user",
			ArgsUsage: "[owner]",
			Action:    listBlogNFTs,
		},
		{
			Name:   "clear",
			Usage:  "Remove all posts (owner only)",
			Action: clearPosts,
		},
		{
			Name:   "rebuild-indexes",
			Usage:  "Rebuild the per-user post indexes (owner only)",
			Action: rebuildIndexes,
		},
	},
}

func blogContract(c *cli.Context, cl *chain.Client) (*contracts.Blog, error) {
	addr, err := resolveAddress(c, blogName)
	if err != nil {
		return nil, err
	}
	a, err := artifacts.Get(contracts.BlogPlatform)
	if err != nil {
		return nil, err
	}
	return contracts.NewBlog(addr, a.ABI, cl.Backend()), nil
}

// blogReader connects without loading an account.
func blogReader(c *cli.Context) (*contracts.Blog, *chain.Client, error) {
	cl, err := connect(c.Context)
	if err != nil {
		return nil, nil, err
	}
	blog, err := blogContract(c, cl)
	return blog, cl, err
}

// blogTx signs with the selected account, sends the transaction built by
// send and waits for it.
func blogTx(c *cli.Context, what string, send func(*contracts.Blog, *bind.TransactOpts) (*types.Transaction, error)) (*types.Receipt, error) {
	ctx, cancel := txContext(c)
	defer cancel()

	cl, _, opts, err := signer(ctx)
	if err != nil {
		return nil, err
	}
	blog, err := blogContract(c, cl)
	if err != nil {
		return nil, err
	}

	tx, err := send(blog, opts)
	if err != nil {
		return nil, err
	}
	return submit(ctx, c.App.Writer, cl, what, tx)
}

func parseUint(s, what string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("invalid %s %q", what, s)
	}
	return v, nil
}

func createPost(c *cli.Context) error {
	content := c.String("content")
	if !c.Bool("raw") {
		encoded, err := codec.Compress(content)
		if err != nil {
			return err
		}
		logger.Debug("encoded content", "plain", len(content), "encoded", len(encoded))
		content = encoded
	}

	_, err := blogTx(c, "createPost", func(b *contracts.Blog, opts *bind.TransactOpts) (*types.Transaction, error) {
		return b.CreatePost(opts, c.String("title"), content, c.String("image"))
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, "Post created")
	return nil
}

func addComment(c *cli.Context) error {
	if c.NArg() < 2 {
		return fmt.Errorf("usage: blog comment <post-id> <content>")
	}
	postID, err := parseUint(c.Args().Get(0), "post id")
	if err != nil {
		return err
	}

	_, err = blogTx(c, "comment", func(b *contracts.Blog, opts *bind.TransactOpts) (*types.Transaction, error) {
		return b.Comment(opts, postID, c.Args().Get(1))
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Commented on post #%s\n", postID)
	return nil
}

func setProfile(c *cli.Context) error {
	_, err := blogTx(c, "setProfile", func(b *contracts.Blog, opts *bind.TransactOpts) (*types.Transaction, error) {
		return b.SetProfile(opts, c.String("nickname"), c.String("avatar"), c.String("bio"))
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, "Profile updated")
	return nil
}

func getProfile(c *cli.Context) error {
	blog, _, err := blogReader(c)
	if err != nil {
		return err
	}
	user, err := holderOrSelf(c.Context, c.Args().First())
	if err != nil {
		return err
	}

	profile, err := blog.GetUserProfile(c.Context, user)
	if err != nil {
		return err
	}

	w := c.App.Writer
	heading(w, "Profile of %s", user.Hex())
	field(w, "Nickname", profile.Nickname)
	field(w, "Avatar", profile.Avatar)
	field(w, "Bio", profile.Bio)
	return nil
}

func page(c *cli.Context) (offset, limit *big.Int, err error) {
	if c.Int64("offset") < 0 || c.Int64("limit") <= 0 {
		return nil, nil, fmt.Errorf("offset must be >= 0 and limit > 0")
	}
	return big.NewInt(c.Int64("offset")), big.NewInt(c.Int64("limit")), nil
}

func listPosts(c *cli.Context) error {
	offset, limit, err := page(c)
	if err != nil {
		return err
	}
	blog, _, err := blogReader(c)
	if err != nil {
		return err
	}

	posts, err := blog.GetPosts(c.Context, offset, limit)
	if err != nil {
		return err
	}
	printPosts(c.App.Writer, posts, !c.Bool("raw"))
	return nil
}

func listUserPosts(c *cli.Context) error {
	offset, limit, err := page(c)
	if err != nil {
		return err
	}
	blog, _, err := blogReader(c)
	if err != nil {
		return err
	}
	user, err := holderOrSelf(c.Context, c.Args().First())
	if err != nil {
		return err
	}

	posts, err := blog.GetUserPosts(c.Context, user, offset, limit)
	if err != nil {
		return err
	}
	printPosts(c.App.Writer, posts, !c.Bool("raw"))
	return nil
}

func listComments(c *cli.Context) error {
	postID := c.Args().First()
	if postID == "" {
		return fmt.Errorf("post id required")
	}
	if _, err := parseUint(postID, "post id"); err != nil {
		return err
	}

	blog, cl, err := blogReader(c)
	if err != nil {
		return err
	}
	ev, err := blog.Event("Comment")
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

	f := events.Filter{Address: blog.Address, Event: ev, Args: map[string]string{"postId": postID}}
	records, err := s.Scan(c.Context, f, []events.Range{events.LastBlocks(latest, cfg.EventWindow)})
	if err != nil {
		return err
	}
	printRecords(w, records)
	return nil
}

func addPrizes(c *cli.Context) error {
	prizes, err := config.LoadPrizes(c.String("file"))
	if err != nil {
		return err
	}

	ctx, cancel := txContext(c)
	defer cancel()

	cl, _, opts, err := signer(ctx)
	if err != nil {
		return err
	}
	blog, err := blogContract(c, cl)
	if err != nil {
		return err
	}

	w := c.App.Writer
	for _, p := range prizes {
		tx, err := blog.AddPrize(opts, p.Name, p.URI, new(big.Int).SetUint64(p.Weight))
		if err != nil {
			return fmt.Errorf("prize %s: %w", p.Name, err)
		}
		if _, err := submit(ctx, w, cl, "addPrize "+p.Name, tx); err != nil {
			return err
		}
	}
	fmt.Fprintf(w, "Added %d prizes\n", len(prizes))
	return nil
}

func listPrizes(c *cli.Context) error {
	blog, _, err := blogReader(c)
	if err != nil {
		return err
	}
	prizes, err := blog.GetPrizeList(c.Context)
	if err != nil {
		return err
	}

	w := c.App.Writer
	if len(prizes) == 0 {
		fmt.Fprintln(w, "No prizes")
		return nil
	}
	total := new(big.Int)
	for _, p := range prizes {
		total.Add(total, p.Weight)
	}
	for i, p := range prizes {
		heading(w, "%d. %s", i+1, p.Name)
		field(w, "URI", p.Uri)
		field(w, "Weight", fmt.Sprintf("%s / %s", p.Weight, total))
	}
	return nil
}

func drawPrize(c *cli.Context) error {
	receipt, err := blogTx(c, "draw", func(b *contracts.Blog, opts *bind.TransactOpts) (*types.Transaction, error) {
		return b.Draw(opts)
	})
	if err != nil {
		return err
	}

	a, err := artifacts.Get(contracts.BlogPlatform)
	if err != nil {
		return err
	}
	ev, err := abiEvent(a.ABI, "NFTDrawn")
	if err != nil {
		return err
	}
	addr, err := resolveAddress(c, blogName)
	if err != nil {
		return err
	}

	records, err := events.DecodeReceipt(ev, addr, receipt)
	if err != nil {
		return err
	}
	assertions.Always(len(records) == 1, "a draw emits one NFTDrawn event", map[string]any{
		"tx":     receipt.TxHash.Hex(),
		"events": len(records),
	})
	if len(records) > 0 {
		assertions.Reachable("draw reports its prize", map[string]any{
			"tx":    receipt.TxHash.Hex(),
			"prize": records[0].Args["prizeName"],
		})
	}

	w := c.App.Writer
	for _, r := range records {
		heading(w, "You drew %v", r.Args["prizeName"])
		field(w, "Token", contracts.FormatValue(r.Args["tokenId"]))
		field(w, "User", contracts.FormatValue(r.Args["user"]))
	}
	return nil
}

func listDraws(c *cli.Context) error {
	blog, cl, err := blogReader(c)
	if err != nil {
		return err
	}
	ev, err := blog.Event("NFTDrawn")
	if err != nil {
		return err
	}

	f := events.Filter{Address: blog.Address, Event: ev}
	if user := c.String("user"); user != "" {
		f.Args = map[string]string{"user": user}
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
	printRecords(w, records)
	return nil
}

type tokenReader interface {
	TokenURI(ctx context.Context, tokenID *big.Int) (string, error)
	OwnerOf(ctx context.Context, tokenID *big.Int) (common.Address, error)
}

func printTokens(c *cli.Context, r tokenReader, ids []*big.Int) error {
	w := c.App.Writer
	if len(ids) == 0 {
		fmt.Fprintln(w, "No tokens")
		return nil
	}
	for _, id := range ids {
		uri, err := r.TokenURI(c.Context, id)
		if err != nil {
			return err
		}
		owner, err := r.OwnerOf(c.Context, id)
		if err != nil {
			return err
		}
		heading(w, "Token #%s info:", id)
		field(w, "Owner", owner.Hex())
		field(w, "Metadata URI", uri)
	}
	return nil
}

func listBlogNFTs(c *cli.Context) error {
	blog, _, err := blogReader(c)
	if err != nil {
		return err
	}
	owner, err := holderOrSelf(c.Context, c.Args().First())
	if err != nil {
		return err
	}

	ids, err := blog.GetOwnedTokens(c.Context, owner)
	if err != nil {
		return err
	}
	return printTokens(c, blog, ids)
}

func clearPosts(c *cli.Context) error {
	if _, err := blogTx(c, "clearAllPosts", func(b *contracts.Blog, opts *bind.TransactOpts) (*types.Transaction, error) {
		return b.ClearAllPosts(opts)
	}); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, "All posts cleared")
	return nil
}

func rebuildIndexes(c *cli.Context) error {
	if _, err := blogTx(c, "rebuildAllUserIndexes", func(b *contracts.Blog, opts *bind.TransactOpts) (*types.Transaction, error) {
		return b.RebuildAllUserIndexes(opts)
	}); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, "User indexes rebuilt")
	return nil
}
