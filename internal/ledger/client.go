package ledger

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

type Options struct {
	URL      string
	ChainID  int64
	Contract string
	Timeout  time.Duration
	Logger   *zap.Logger
}

// Client talks to one token contract through a JSON-RPC endpoint. The
// endpoint must be a websocket (or IPC) URL for subscriptions.
type Client struct {
	eth      *ethclient.Client
	chainID  *big.Int
	contract common.Address
	token    *bind.BoundContract
	timeout  time.Duration
	logger   *zap.Logger
}

func Dial(ctx context.Context, opts Options) (*Client, error) {
	if !common.IsHexAddress(opts.Contract) {
		return nil, fmt.Errorf("contract address '%s' is not a hex address", opts.Contract)
	}

	eth, err := ethclient.DialContext(ctx, opts.URL)
	if err != nil {
		return nil, fmt.Errorf("can not connect to ledger at %s: %w", opts.URL, err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	contract := common.HexToAddress(opts.Contract)
	return &Client{
		eth:      eth,
		chainID:  big.NewInt(opts.ChainID),
		contract: contract,
		token:    bind.NewBoundContract(contract, tokenContractABI, eth, eth, eth),
		timeout:  opts.Timeout,
		logger:   logger.Named("ledger"),
	}, nil
}

func (c *Client) Close() {
	c.eth.Close()
}

// SubmitTransfer signs and sends transfer(to, amount) as cred and waits for
// the receipt. The returned hash is the transfer's identity everywhere
// downstream.
func (c *Client) SubmitTransfer(ctx context.Context, cred Credential, to string, amount uint64) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	auth, err := bind.NewKeyedTransactorWithChainID(cred.Key, c.chainID)
	if err != nil {
		return "", fmt.Errorf("failed to create transactor: %w", err)
	}
	auth.Context = ctx

	// the dev chain runs without a fee market, so send legacy transactions
	gasPrice, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get gas price: %w", err)
	}
	auth.GasPrice = gasPrice

	tx, err := c.token.Transact(auth, "transfer", common.HexToAddress(to), new(big.Int).SetUint64(amount))
	if err != nil {
		return "", fmt.Errorf("failed to send transfer: %w", err)
	}

	hash := strings.ToLower(tx.Hash().Hex())
	c.logger.Debug("transfer sent", zap.String("tx_hash", hash), zap.String("from", cred.Address.Hex()))

	receipt, err := bind.WaitMined(ctx, c.eth, tx)
	if err != nil {
		return "", fmt.Errorf("failed waiting for transfer %s: %w", hash, err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return "", fmt.Errorf("%w: %s", ErrTransferReverted, hash)
	}

	return hash, nil
}

func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	return c.eth.BlockNumber(ctx)
}

func (c *Client) transferQuery(contract string, from *big.Int) (ethereum.FilterQuery, error) {
	addr := c.contract
	if contract != "" {
		if !common.IsHexAddress(contract) {
			return ethereum.FilterQuery{}, fmt.Errorf("contract address '%s' is not a hex address", contract)
		}
		addr = common.HexToAddress(contract)
	}
	return ethereum.FilterQuery{
		FromBlock: from,
		Addresses: []common.Address{addr},
		Topics:    [][]common.Hash{{transferEventID}},
	}, nil
}

// TransferEventsSince returns the Transfer events of contract from
// fromBlock up to the current head, in chain order.
func (c *Client) TransferEventsSince(ctx context.Context, contract string, fromBlock uint64) ([]TransferEvent, error) {
	query, err := c.transferQuery(contract, new(big.Int).SetUint64(fromBlock))
	if err != nil {
		return nil, err
	}

	logs, err := c.eth.FilterLogs(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to filter Transfer logs from block %d: %w", fromBlock, err)
	}

	events := make([]TransferEvent, 0, len(logs))
	for _, l := range logs {
		ev, err := decodeTransferLog(l)
		if err != nil {
			c.logger.Warn("skipping undecodable log",
				zap.String("tx_hash", l.TxHash.Hex()), zap.Uint("log_index", l.Index), zap.Error(err))
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

// SubscribeTransferEvents streams new Transfer events of contract.
func (c *Client) SubscribeTransferEvents(ctx context.Context, contract string) (Subscription, error) {
	query, err := c.transferQuery(contract, nil)
	if err != nil {
		return nil, err
	}

	logs := make(chan types.Log, 64)
	sub, err := c.eth.SubscribeFilterLogs(ctx, query, logs)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to Transfer logs: %w", err)
	}
	return newLogSubscription(sub, logs, c.logger), nil
}

// Subscription delivers decoded events until Unsubscribe is called or the
// underlying connection fails, in which case one error is sent on Err.
type Subscription interface {
	Events() <-chan TransferEvent
	Err() <-chan error
	Unsubscribe()
}

type logSubscription struct {
	sub    ethereum.Subscription
	events chan TransferEvent
	errs   chan error
	quit   chan struct{}
	once   sync.Once
}

func newLogSubscription(sub ethereum.Subscription, logs <-chan types.Log, logger *zap.Logger) *logSubscription {
	s := &logSubscription{
		sub:    sub,
		events: make(chan TransferEvent),
		errs:   make(chan error, 1),
		quit:   make(chan struct{}),
	}
	go s.loop(logs, logger)
	return s
}

func (s *logSubscription) loop(logs <-chan types.Log, logger *zap.Logger) {
	for {
		select {
		case <-s.quit:
			return
		case err, ok := <-s.sub.Err():
			if !ok {
				return
			}
			s.errs <- err
			return
		case l := <-logs:
			ev, err := decodeTransferLog(l)
			if err != nil {
				logger.Warn("skipping undecodable log",
					zap.String("tx_hash", l.TxHash.Hex()), zap.Uint("log_index", l.Index), zap.Error(err))
				continue
			}
			select {
			case s.events <- ev:
			case <-s.quit:
				return
			}
		}
	}
}

func (s *logSubscription) Events() <-chan TransferEvent { return s.events }
func (s *logSubscription) Err() <-chan error            { return s.errs }

func (s *logSubscription) Unsubscribe() {
	s.once.Do(func() {
		close(s.quit)
		s.sub.Unsubscribe()
	})
}
