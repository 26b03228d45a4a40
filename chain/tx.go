package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

var ErrReverted = errors.New("transaction reverted")

// RevertError carries the receipt of a transaction whose status is 0.
type RevertError struct {
	Receipt *types.Receipt
}

func (e *RevertError) Error() string {
	return fmt.Sprintf("%s: tx %s in block %s", ErrReverted, e.Receipt.TxHash.Hex(), e.Receipt.BlockNumber)
}

func (e *RevertError) Unwrap() error {
	return ErrReverted
}

// WaitMined blocks until tx has a receipt and the chain head is
// confirmations-1 blocks past it. A reverted receipt is returned together
// with a *RevertError.
func (c *Client) WaitMined(ctx context.Context, tx *types.Transaction, confirmations uint64) (*types.Receipt, error) {
	if confirmations == 0 {
		confirmations = 1
	}

	c.logger.Debug("waiting for receipt", "tx", tx.Hash().Hex(), "confirmations", confirmations)

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	var receipt *types.Receipt
	for {
		if receipt == nil {
			r, err := c.backend.TransactionReceipt(ctx, tx.Hash())
			switch {
			case err == nil:
				receipt = r
				if receipt.Status == types.ReceiptStatusFailed {
					return receipt, &RevertError{Receipt: receipt}
				}
			case errors.Is(err, ethereum.NotFound):
			default:
				c.logger.Debug("receipt lookup failed", "tx", tx.Hash().Hex(), "error", err)
			}
		}

		if receipt != nil {
			head, err := c.backend.BlockNumber(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to get latest block: %w", err)
			}
			if mined := receipt.BlockNumber.Uint64(); head+1 >= mined+confirmations {
				return receipt, nil
			}
		}

		select {
		case <-ctx.Done():
			return receipt, fmt.Errorf("waiting for tx %s: %w", tx.Hash().Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
}

// Transfer sends value wei from key to to as a legacy EIP-155 transaction.
func (c *Client) Transfer(ctx context.Context, key *ecdsa.PrivateKey, to common.Address, value *big.Int) (*types.Transaction, error) {
	from := crypto.PubkeyToAddress(key.PublicKey)

	nonce, err := c.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("failed to get nonce: %w", err)
	}

	gasPrice, err := c.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get gas price: %w", err)
	}

	gasLimit, err := c.backend.EstimateGas(ctx, ethereum.CallMsg{From: from, To: &to, Value: value})
	if err != nil {
		return nil, fmt.Errorf("failed to estimate gas: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    value,
		Gas:      gasLimit,
		GasPrice: gasPrice,
	})

	signedTx, err := types.SignTx(tx, types.NewEIP155Signer(c.chainID), key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := c.backend.SendTransaction(ctx, signedTx); err != nil {
		return nil, fmt.Errorf("failed to send transaction: %w", err)
	}

	c.logger.Debug("transfer sent", "tx", signedTx.Hash().Hex(), "to", to.Hex(), "value", value)
	return signedTx, nil
}
