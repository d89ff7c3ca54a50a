package keyexpr

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
)

// DerivationPath is a sequence of BIP-32 child indices. Hardened indices are
// offset by 2^31.
type DerivationPath []uint32

// String renders the path in descriptor notation, hardened steps suffixed
// with "'" and no "m/" prefix, e.g. "84'/0'/0'".
func (p DerivationPath) String() string {
	elems := make([]string, 0, len(p))
	for _, step := range p {
		if step >= hdkeychain.HardenedKeyStart {
			elems = append(elems, fmt.Sprintf("%d'", step-hdkeychain.HardenedKeyStart))
			continue
		}
		elems = append(elems, fmt.Sprintf("%d", step))
	}
	return strings.Join(elems, "/")
}

// Wildcard marks the ranged step a key expression may end with.
type Wildcard int

const (
	// WildcardNone means the expression derives a single key
	WildcardNone Wildcard = iota
	// WildcardUnhardened is a trailing "/*"
	WildcardUnhardened
	// WildcardHardened is a trailing "/*h" or "/*'"
	WildcardHardened
)
