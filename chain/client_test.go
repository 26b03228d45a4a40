package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/stretchr/testify/suite"

	"github.com/youxinddd/dappctl/logging"
)

// PUSH1 0 PUSH1 0 REVERT
var revertingInitCode = common.FromHex("0x60006000fd")

// deploys the single byte runtime 0x00 (STOP)
var stopInitCode = common.FromHex("0x600060005360016000f3")

type ClientSuite struct {
	suite.Suite
	sim    *simulated.Backend
	client *Client
	key    *ecdsa.PrivateKey
	from   common.Address
}

func (s *ClientSuite) SetupTest() {
	key, err := crypto.GenerateKey()
	s.Require().NoError(err)
	s.key = key
	s.from = crypto.PubkeyToAddress(key.PublicKey)

	s.sim = simulated.NewBackend(types.GenesisAlloc{
		s.from: {Balance: big.NewInt(1_000_000_000_000_000_000)},
	})

	s.client, err = NewClient(context.Background(), s.sim.Client(), nil, logging.Discard())
	s.Require().NoError(err)
	s.client.SetPollInterval(10 * time.Millisecond)
}

func (s *ClientSuite) TearDownTest() {
	s.client.Close()
	s.Require().NoError(s.sim.Close())
}

func (s *ClientSuite) sendCreate(data []byte) *types.Transaction {
	ctx := context.Background()
	nonce, err := s.sim.Client().PendingNonceAt(ctx, s.from)
	s.Require().NoError(err)
	gasPrice, err := s.sim.Client().SuggestGasPrice(ctx)
	s.Require().NoError(err)

	tx, err := types.SignTx(
		types.NewContractCreation(nonce, big.NewInt(0), 200_000, gasPrice, data),
		types.NewEIP155Signer(s.client.ChainID()),
		s.key,
	)
	s.Require().NoError(err)
	s.Require().NoError(s.sim.Client().SendTransaction(ctx, tx))
	return tx
}

func (s *ClientSuite) TestChainID() {
	s.Require().Equal(int64(1337), s.client.ChainID().Int64())

	opts, err := s.client.Transactor(context.Background(), s.key)
	s.Require().NoError(err)
	s.Require().Equal(s.from, opts.From)
}

func (s *ClientSuite) TestTransferAndWait() {
	ctx := context.Background()
	to := common.HexToAddress("0x29b8579C6d4D03204EC20C0b2F517D4D753b421C")

	tx, err := s.client.Transfer(ctx, s.key, to, big.NewInt(12345))
	s.Require().NoError(err)
	s.sim.Commit()

	receipt, err := s.client.WaitMined(ctx, tx, 1)
	s.Require().NoError(err)
	s.Require().Equal(types.ReceiptStatusSuccessful, receipt.Status)

	balance, err := s.client.Balance(ctx, to)
	s.Require().NoError(err)
	s.Require().Equal(int64(12345), balance.Int64())
}

func (s *ClientSuite) TestWaitForConfirmations() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tx, err := s.client.Transfer(ctx, s.key, common.HexToAddress("0x01"), big.NewInt(1))
	s.Require().NoError(err)
	s.sim.Commit()

	go func() {
		time.Sleep(50 * time.Millisecond)
		s.sim.Commit()
		s.sim.Commit()
	}()

	receipt, err := s.client.WaitMined(ctx, tx, 3)
	s.Require().NoError(err)

	head, err := s.client.BlockNumber(ctx)
	s.Require().NoError(err)
	s.Require().GreaterOrEqual(head, receipt.BlockNumber.Uint64()+2)
}

func (s *ClientSuite) TestWaitTimesOut() {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	tx, err := s.client.Transfer(ctx, s.key, common.HexToAddress("0x02"), big.NewInt(1))
	s.Require().NoError(err)

	_, err = s.client.WaitMined(ctx, tx, 1)
	s.Require().True(errors.Is(err, context.DeadlineExceeded))
}

func (s *ClientSuite) TestRevertedTransaction() {
	tx := s.sendCreate(revertingInitCode)
	s.sim.Commit()

	receipt, err := s.client.WaitMined(context.Background(), tx, 1)
	s.Require().Error(err)
	s.Require().True(errors.Is(err, ErrReverted))

	var revert *RevertError
	s.Require().True(errors.As(err, &revert))
	s.Require().Equal(receipt, revert.Receipt)
	s.Require().Equal(types.ReceiptStatusFailed, receipt.Status)
}

func (s *ClientSuite) TestCodeAndImplementation() {
	ctx := context.Background()

	tx := s.sendCreate(stopInitCode)
	s.sim.Commit()
	receipt, err := s.client.WaitMined(ctx, tx, 1)
	s.Require().NoError(err)

	hasCode, err := s.client.HasCode(ctx, receipt.ContractAddress)
	s.Require().NoError(err)
	s.Require().True(hasCode)

	hasCode, err = s.client.HasCode(ctx, s.from)
	s.Require().NoError(err)
	s.Require().False(hasCode)

	impl, err := s.client.Implementation(ctx, receipt.ContractAddress)
	s.Require().NoError(err)
	s.Require().Equal(common.Address{}, impl)
}

func TestClient(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}
