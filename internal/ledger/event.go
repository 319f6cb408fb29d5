package ledger

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/hance08/dtl/internal/model"
)

// tokenABI is the subset of the ERC-20 interface the service touches.
const tokenABI = `[
	{"type":"function","name":"transfer","stateMutability":"nonpayable",
	 "inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],
	 "outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"balanceOf","stateMutability":"view",
	 "inputs":[{"name":"account","type":"address"}],
	 "outputs":[{"name":"","type":"uint256"}]},
	{"type":"event","name":"Transfer","anonymous":false,
	 "inputs":[{"name":"from","type":"address","indexed":true},
	           {"name":"to","type":"address","indexed":true},
	           {"name":"value","type":"uint256","indexed":false}]}
]`

var (
	ErrNotTransferLog   = errors.New("log is not a Transfer event")
	ErrAmountOverflow   = errors.New("transfer amount does not fit in 64 bits")
	ErrRemovedLog       = errors.New("log was removed by a chain reorganisation")
	ErrTransferReverted = errors.New("transfer transaction reverted")
)

func parseTokenABI() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(tokenABI))
	if err != nil {
		panic(fmt.Sprintf("token abi: %v", err))
	}
	return parsed
}

var (
	tokenContractABI = parseTokenABI()
	transferEventID  = tokenContractABI.Events["Transfer"].ID
)

// TransferEvent is one decoded Transfer log.
type TransferEvent struct {
	From        string
	To          string
	Amount      uint64
	TxHash      string
	BlockNumber uint64
	LogIndex    uint
}

func (e TransferEvent) Key() model.EventKey {
	return model.EventKey{TxHash: e.TxHash, LogIndex: e.LogIndex, BlockNumber: e.BlockNumber}
}

func decodeTransferLog(l types.Log) (TransferEvent, error) {
	if l.Removed {
		return TransferEvent{}, ErrRemovedLog
	}
	if len(l.Topics) != 3 || l.Topics[0] != transferEventID {
		return TransferEvent{}, ErrNotTransferLog
	}

	values, err := tokenContractABI.Unpack("Transfer", l.Data)
	if err != nil {
		return TransferEvent{}, fmt.Errorf("failed to unpack Transfer data: %w", err)
	}
	if len(values) != 1 {
		return TransferEvent{}, ErrNotTransferLog
	}

	amount, err := toUint64(values[0])
	if err != nil {
		return TransferEvent{}, err
	}

	return TransferEvent{
		From:        strings.ToLower(common.BytesToAddress(l.Topics[1].Bytes()).Hex()),
		To:          strings.ToLower(common.BytesToAddress(l.Topics[2].Bytes()).Hex()),
		Amount:      amount,
		TxHash:      strings.ToLower(l.TxHash.Hex()),
		BlockNumber: l.BlockNumber,
		LogIndex:    l.Index,
	}, nil
}

func toUint64(v any) (uint64, error) {
	n, ok := v.(*big.Int)
	if !ok {
		return 0, fmt.Errorf("unexpected Transfer value type %T", v)
	}
	if n.Sign() < 0 || !n.IsUint64() {
		return 0, fmt.Errorf("%w: %s", ErrAmountOverflow, n.String())
	}
	return n.Uint64(), nil
}
