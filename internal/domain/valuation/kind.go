package valuation

import (
	"fmt"
	"strings"

	"github.com/bimakw/token-explorer/internal/domain/entities"
)

// HoldingKind tags a batch of holdings as fungible or non-fungible.
// A batch is always homogeneous.
type HoldingKind int

const (
	// Fungible holdings carry a decimals exponent (ERC-20)
	Fungible HoldingKind = iota
	// NonFungible holdings are whole-unit counts (ERC-721)
	NonFungible
)

// String returns the token standard matching the kind
func (k HoldingKind) String() string {
	if k == NonFungible {
		return entities.StandardERC721
	}
	return entities.StandardERC20
}

// ParseHoldingKind decodes a kind from its API representation.
// An empty string selects Fungible.
func ParseHoldingKind(s string) (HoldingKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", entities.StandardERC20, "fungible":
		return Fungible, nil
	case entities.StandardERC721, "nft", "non_fungible":
		return NonFungible, nil
	}
	return Fungible, fmt.Errorf("%w: %q", ErrUnknownHoldingKind, s)
}

// KindOf returns the holding kind for a token standard
func KindOf(standard string) HoldingKind {
	if strings.EqualFold(standard, entities.StandardERC721) {
		return NonFungible
	}
	return Fungible
}
