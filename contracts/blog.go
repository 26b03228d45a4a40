package contracts

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Post mirrors BlogPlatform.Post. Content is stored gzip+base64 encoded.
type Post struct {
	Id        *big.Int
	Author    common.Address
	Title     string
	Content   string
	ImageUrl  string
	Timestamp *big.Int
}

type Profile struct {
	Nickname string
	Avatar   string
	Bio      string
}

type Prize struct {
	Name   string
	Uri    string
	Weight *big.Int
}

// Blog is BlogPlatform, normally reached through its proxy.
type Blog struct {
	*Contract
}

func NewBlog(address common.Address, parsed abi.ABI, backend bind.ContractBackend) *Blog {
	return &Blog{NewContract(BlogPlatform, address, parsed, backend)}
}

func (b *Blog) Initialize(opts *bind.TransactOpts) (*types.Transaction, error) {
	return b.Transact(opts, "initialize")
}

func (b *Blog) Owner(ctx context.Context) (common.Address, error) {
	return callOne[common.Address](ctx, b.Contract, "owner")
}

func (b *Blog) UpgradeTo(opts *bind.TransactOpts, implementation common.Address) (*types.Transaction, error) {
	return b.Transact(opts, "upgradeTo", implementation)
}

// CreatePost expects content already encoded with codec.Compress.
func (b *Blog) CreatePost(opts *bind.TransactOpts, title, content, imageURL string) (*types.Transaction, error) {
	return b.Transact(opts, "createPost", title, content, imageURL)
}

func (b *Blog) Comment(opts *bind.TransactOpts, postID *big.Int, content string) (*types.Transaction, error) {
	return b.Transact(opts, "comment", postID, content)
}

func (b *Blog) SetProfile(opts *bind.TransactOpts, nickname, avatar, bio string) (*types.Transaction, error) {
	return b.Transact(opts, "setProfile", nickname, avatar, bio)
}

func (b *Blog) GetUserProfile(ctx context.Context, user common.Address) (Profile, error) {
	return callOne[Profile](ctx, b.Contract, "getUserProfile", user)
}

func (b *Blog) GetPosts(ctx context.Context, offset, limit *big.Int) ([]Post, error) {
	return callOne[[]Post](ctx, b.Contract, "getPosts", offset, limit)
}

func (b *Blog) GetUserPosts(ctx context.Context, user common.Address, offset, limit *big.Int) ([]Post, error) {
	return callOne[[]Post](ctx, b.Contract, "getUserPosts", user, offset, limit)
}

func (b *Blog) ClearAllPosts(opts *bind.TransactOpts) (*types.Transaction, error) {
	return b.Transact(opts, "clearAllPosts")
}

func (b *Blog) AddPrize(opts *bind.TransactOpts, name, uri string, weight *big.Int) (*types.Transaction, error) {
	return b.Transact(opts, "addPrize", name, uri, weight)
}

func (b *Blog) GetPrizeList(ctx context.Context) ([]Prize, error) {
	return callOne[[]Prize](ctx, b.Contract, "getPrizeList")
}

// Draw mints a random prize NFT to the sender. The token id is only known
// from the NFTDrawn event of the receipt.
func (b *Blog) Draw(opts *bind.TransactOpts) (*types.Transaction, error) {
	return b.Transact(opts, "draw")
}

func (b *Blog) GetOwnedTokens(ctx context.Context, owner common.Address) ([]*big.Int, error) {
	return callOne[[]*big.Int](ctx, b.Contract, "getOwnedTokens", owner)
}

func (b *Blog) TokenURI(ctx context.Context, tokenID *big.Int) (string, error) {
	return callOne[string](ctx, b.Contract, "tokenURI", tokenID)
}

func (b *Blog) OwnerOf(ctx context.Context, tokenID *big.Int) (common.Address, error) {
	return callOne[common.Address](ctx, b.Contract, "ownerOf", tokenID)
}

func (b *Blog) RebuildAllUserIndexes(opts *bind.TransactOpts) (*types.Transaction, error) {
	return b.Transact(opts, "rebuildAllUserIndexes")
}
