package handlers

import (
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
)

// isValidAddress reports whether addr is a 0x-prefixed 20-byte hex address
func isValidAddress(addr string) bool {
	return len(addr) == 42 && common.IsHexAddress(addr)
}

// parsePagination reads limit and offset query parameters. Out-of-range
// values fall back to the defaults; the service clamps the upper bound.
func parsePagination(r *http.Request, defaultLimit int) (limit, offset int) {
	limit = defaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if l, err := strconv.Atoi(v); err == nil && l > 0 {
			limit = l
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if o, err := strconv.Atoi(v); err == nil && o >= 0 {
			offset = o
		}
	}
	return limit, offset
}
