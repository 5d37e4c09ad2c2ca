package ethereum

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/bimakw/token-explorer/internal/domain/entities"
)

// TransferEventSignature is the keccak256 hash of Transfer(address,address,uint256).
// ERC-20 and ERC-721 emit the same event; ERC-721 indexes the third argument.
var TransferEventSignature = common.HexToHash("0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef")

var (
	ErrNotTransferEvent = errors.New("not a Transfer event")
	ErrInvalidTopics    = errors.New("invalid number of topics")
)

// ParseTransferEvent parses a raw log into a Transfer entity.
//
// ERC-20 logs carry 3 topics and the value in data. ERC-721 logs carry
// 4 topics with the token id last and no data; they are stored with value 1.
func ParseTransferEvent(log types.Log, blockTimestamp time.Time) (*entities.Transfer, error) {
	if len(log.Topics) == 0 || log.Topics[0] != TransferEventSignature {
		return nil, ErrNotTransferEvent
	}
	if len(log.Topics) != 3 && len(log.Topics) != 4 {
		return nil, fmt.Errorf("%w: expected 3 or 4, got %d", ErrInvalidTopics, len(log.Topics))
	}

	fromAddress := common.BytesToAddress(log.Topics[1].Bytes())
	toAddress := common.BytesToAddress(log.Topics[2].Bytes())

	transfer := &entities.Transfer{
		TxHash:         log.TxHash.Hex(),
		LogIndex:       int(log.Index),
		BlockNumber:    int64(log.BlockNumber),
		BlockTimestamp: blockTimestamp,
		TokenAddress:   strings.ToLower(log.Address.Hex()),
		FromAddress:    strings.ToLower(fromAddress.Hex()),
		ToAddress:      strings.ToLower(toAddress.Hex()),
	}

	if len(log.Topics) == 4 {
		tokenID := new(big.Int).SetBytes(log.Topics[3].Bytes()).String()
		transfer.TokenID = &tokenID
		transfer.Value = big.NewInt(1)
	} else {
		if len(log.Data) != 32 {
			return nil, fmt.Errorf("invalid data length: expected 32, got %d", len(log.Data))
		}
		transfer.Value = new(big.Int).SetBytes(log.Data)
	}
	transfer.ValueString = transfer.Value.String()

	return transfer, nil
}

// ParseTransferLogs parses multiple logs into Transfer entities
// Returns parsed transfers and a list of failed log indices
func ParseTransferLogs(logs []types.Log, blockTimestamps map[uint64]time.Time) ([]entities.Transfer, []int) {
	transfers := make([]entities.Transfer, 0, len(logs))
	failedIndices := make([]int, 0)

	for i, log := range logs {
		timestamp, ok := blockTimestamps[log.BlockNumber]
		if !ok {
			failedIndices = append(failedIndices, i)
			continue
		}

		transfer, err := ParseTransferEvent(log, timestamp)
		if err != nil {
			failedIndices = append(failedIndices, i)
			continue
		}

		transfers = append(transfers, *transfer)
	}

	return transfers, failedIndices
}

// IsTransferEvent checks if a log is an ERC-20 or ERC-721 Transfer event
func IsTransferEvent(log types.Log) bool {
	n := len(log.Topics)
	return (n == 3 || n == 4) && log.Topics[0] == TransferEventSignature
}
