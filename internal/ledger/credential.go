package ledger

import (
	"crypto/ecdsa"
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Credential is the signing key of one provisioned sender.
type Credential struct {
	Address common.Address
	Key     *ecdsa.PrivateKey
}

// Credentials is the sender allow-list, keyed by lower-cased address.
type Credentials map[string]Credential

// ParseCredentials turns the configured address -> hex key map into
// signing credentials. A key whose derived address differs from its map
// key is rejected.
func ParseCredentials(raw map[string]string) (Credentials, error) {
	creds := make(Credentials, len(raw))
	for addr, hexKey := range raw {
		if !common.IsHexAddress(addr) {
			return nil, fmt.Errorf("credential address '%s' is not a hex address", addr)
		}

		key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
		if err != nil {
			return nil, fmt.Errorf("invalid private key for '%s': %w", addr, err)
		}

		derived := crypto.PubkeyToAddress(key.PublicKey)
		if derived != common.HexToAddress(addr) {
			return nil, fmt.Errorf("private key for '%s' belongs to '%s'", addr, derived.Hex())
		}

		creds[strings.ToLower(derived.Hex())] = Credential{Address: derived, Key: key}
	}
	return creds, nil
}

func (c Credentials) Lookup(address string) (Credential, bool) {
	cred, ok := c[strings.ToLower(strings.TrimSpace(address))]
	return cred, ok
}

// Addresses lists the allow-list in a stable order.
func (c Credentials) Addresses() []string {
	out := make([]string, 0, len(c))
	for addr := range c {
		out = append(out, addr)
	}
	sort.Strings(out)
	return out
}
