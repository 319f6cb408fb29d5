package validation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/hance08/dtl/internal/constants"
)

// NormalizeAddress returns the lower-cased 0x form of a hex address, the
// key every account and transfer is matched by.
func NormalizeAddress(address string) (string, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return "", fmt.Errorf("address can't be empty")
	}
	if !common.IsHexAddress(address) {
		return "", fmt.Errorf("'%s' is not a valid hex address", address)
	}
	return strings.ToLower(common.HexToAddress(address).Hex()), nil
}

// ValidateAddress accepts both string and any (for survey compatibility)
func ValidateAddress(val any) error {
	address, ok := val.(string)
	if !ok {
		return fmt.Errorf("address must be a string")
	}
	_, err := NormalizeAddress(address)
	return err
}

// ValidateAmount checks a positive whole token amount that fits the cache.
func ValidateAmount(amount uint64) error {
	if amount == 0 {
		return fmt.Errorf("amount must be greater than zero")
	}
	if amount > constants.MaxStoredAmount {
		return fmt.Errorf("amount too large (max %d)", uint64(constants.MaxStoredAmount))
	}
	return nil
}

// ParseAmount parses user input into a whole token amount.
func ParseAmount(input string) (uint64, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return 0, fmt.Errorf("amount can't be empty")
	}

	amount, err := strconv.ParseUint(input, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount format: %s", input)
	}
	if err := ValidateAmount(amount); err != nil {
		return 0, err
	}
	return amount, nil
}

// ValidateAmountInput is the prompt-side counterpart of ParseAmount.
func ValidateAmountInput(val string) error {
	_, err := ParseAmount(val)
	return err
}

func ValidateDisplayName(name string) error {
	if len(strings.TrimSpace(name)) > constants.MaxNameLen {
		return fmt.Errorf("name too long (max %d characters)", constants.MaxNameLen)
	}
	return nil
}
