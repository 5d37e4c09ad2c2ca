/*
 * Copyright (c) 2024 Bima Kharisma Wicaksana
 * GitHub: https://github.com/bimakw
 *
 * Licensed under MIT License with Attribution Requirement.
 * See LICENSE file for details.
 */

package ethereum

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/bimakw/token-explorer/internal/domain/entities"
)

// ContractCaller performs read-only contract calls
type ContractCaller interface {
	CallContract(ctx context.Context, contract common.Address, data []byte) ([]byte, error)
}

// TokenMetadata holds token contract metadata
type TokenMetadata struct {
	Name     string
	Symbol   string
	Decimals uint8 // always 0 for ERC-721
	Standard string
}

// MetadataFetcher fetches token metadata via eth_call
type MetadataFetcher struct {
	caller ContractCaller
	logger *zap.Logger
}

// NewMetadataFetcher creates a new metadata fetcher
func NewMetadataFetcher(caller ContractCaller, logger *zap.Logger) *MetadataFetcher {
	return &MetadataFetcher{
		caller: caller,
		logger: logger,
	}
}

// Function selectors (first 4 bytes of keccak256 hash).
// ERC-721 metadata shares name() and symbol() with ERC-20.
var (
	// name() -> 0x06fdde03
	nameSig = common.FromHex("0x06fdde03")
	// symbol() -> 0x95d89b41
	symbolSig = common.FromHex("0x95d89b41")
	// decimals() -> 0x313ce567
	decimalsSig = common.FromHex("0x313ce567")
)

// FetchMetadata fetches token metadata for a given contract address.
// Calls that fail fall back to placeholder values; decimals are only read for ERC-20.
func (f *MetadataFetcher) FetchMetadata(ctx context.Context, tokenAddress, standard string) (*TokenMetadata, error) {
	addr := common.HexToAddress(tokenAddress)

	name, err := f.fetchName(ctx, addr)
	if err != nil {
		f.logger.Warn("Failed to fetch token name, using fallback",
			zap.String("token", tokenAddress),
			zap.Error(err),
		)
		name = "Unknown"
	}

	symbol, err := f.fetchSymbol(ctx, addr)
	if err != nil {
		f.logger.Warn("Failed to fetch token symbol, using fallback",
			zap.String("token", tokenAddress),
			zap.Error(err),
		)
		symbol = "UNK"
	}

	if standard == entities.StandardERC721 {
		return &TokenMetadata{
			Name:     name,
			Symbol:   symbol,
			Standard: standard,
		}, nil
	}

	decimals, err := f.fetchDecimals(ctx, addr)
	if err != nil {
		f.logger.Warn("Failed to fetch token decimals, using fallback",
			zap.String("token", tokenAddress),
			zap.Error(err),
		)
		decimals = 18
	}

	return &TokenMetadata{
		Name:     name,
		Symbol:   symbol,
		Decimals: decimals,
		Standard: entities.StandardERC20,
	}, nil
}

// fetchName fetches token name via eth_call
func (f *MetadataFetcher) fetchName(ctx context.Context, addr common.Address) (string, error) {
	result, err := f.caller.CallContract(ctx, addr, nameSig)
	if err != nil {
		return "", err
	}
	return decodeStringOrBytes32(result)
}

// fetchSymbol fetches token symbol via eth_call
func (f *MetadataFetcher) fetchSymbol(ctx context.Context, addr common.Address) (string, error) {
	result, err := f.caller.CallContract(ctx, addr, symbolSig)
	if err != nil {
		return "", err
	}
	return decodeStringOrBytes32(result)
}

// fetchDecimals fetches token decimals via eth_call
func (f *MetadataFetcher) fetchDecimals(ctx context.Context, addr common.Address) (uint8, error) {
	result, err := f.caller.CallContract(ctx, addr, decimalsSig)
	if err != nil {
		return 0, err
	}

	if len(result) == 0 {
		return 0, fmt.Errorf("empty result for decimals")
	}

	// Decimals returns uint8, but padded to 32 bytes
	if len(result) < 32 {
		return 0, fmt.Errorf("invalid decimals response length: %d", len(result))
	}

	// Take the last byte for uint8
	return result[31], nil
}

// decodeStringOrBytes32 decodes a response that could be either:
// 1. ABI-encoded string: offset (32 bytes) + length (32 bytes) + data (padded to 32 bytes)
// 2. bytes32: raw 32 bytes (e.g., MKR token)
func decodeStringOrBytes32(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty data")
	}

	// If data is less than 32 bytes, invalid
	if len(data) < 32 {
		return "", fmt.Errorf("data too short: %d bytes", len(data))
	}

	// Try to decode as ABI-encoded string first
	// Check if first 32 bytes could be an offset (typically 0x20 = 32)
	if len(data) >= 64 {
		offset := new(big.Int).SetBytes(data[:32])
		if offset.Uint64() == 32 {
			// This looks like an ABI-encoded string
			length := new(big.Int).SetBytes(data[32:64])
			strLen := int(length.Uint64())

			// Handle empty string (length = 0)
			if strLen == 0 {
				return "", nil
			}

			if len(data) >= 64+strLen {
				strData := data[64 : 64+strLen]
				return strings.TrimRight(string(strData), "\x00"), nil
			}
		}
	}

	// Fallback: treat as bytes32
	// Remove trailing null bytes
	result := bytes.TrimRight(data[:32], "\x00")

	// Check if result is printable ASCII
	if isPrintableASCII(result) {
		return string(result), nil
	}

	// Return hex representation if not printable
	return "0x" + hex.EncodeToString(data[:32]), nil
}

// isPrintableASCII checks if all bytes are printable ASCII characters
func isPrintableASCII(data []byte) bool {
	for _, b := range data {
		if b < 32 || b > 126 {
			return false
		}
	}
	return len(data) > 0
}
