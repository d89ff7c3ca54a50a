package descriptor

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/tdex-network/pubport/pkg/keyexpr"
)

// ScriptType is one of the three supported single-sig output script
// templates, each tied by convention to a hardened derivation prefix.
type ScriptType int

const (
	// ScriptTypeP2PKH is the BIP-44 legacy template
	ScriptTypeP2PKH ScriptType = iota
	// ScriptTypeP2SHP2WPKH is the BIP-49 wrapped segwit template
	ScriptTypeP2SHP2WPKH
	// ScriptTypeP2WPKH is the BIP-84 native segwit template
	ScriptTypeP2WPKH
)

// AllScriptTypes lists the supported script types in BIP number order.
var AllScriptTypes = []ScriptType{
	ScriptTypeP2PKH, ScriptTypeP2SHP2WPKH, ScriptTypeP2WPKH,
}

func (t ScriptType) String() string {
	switch t {
	case ScriptTypeP2SHP2WPKH:
		return "p2sh-p2wpkh"
	case ScriptTypeP2WPKH:
		return "p2wpkh"
	default:
		return "p2pkh"
	}
}

// DerivationPath returns the canonical 3-segment hardened prefix of the
// script type in descriptor notation.
func (t ScriptType) DerivationPath() string {
	switch t {
	case ScriptTypeP2SHP2WPKH:
		return "49'/0'/0'"
	case ScriptTypeP2WPKH:
		return "84'/0'/0'"
	default:
		return "44'/0'/0'"
	}
}

// Wrap applies the script type's descriptor template to the given key
// expression.
func (t ScriptType) Wrap(script string) string {
	switch t {
	case ScriptTypeP2SHP2WPKH:
		return fmt.Sprintf("sh(wpkh(%s))", script)
	case ScriptTypeP2WPKH:
		return fmt.Sprintf("wpkh(%s)", script)
	default:
		return fmt.Sprintf("pkh(%s)", script)
	}
}

// ScriptTypeFromName maps the script type names used by vendor JSON exports.
func ScriptTypeFromName(name string) (ScriptType, error) {
	switch name {
	case "p2pkh":
		return ScriptTypeP2PKH, nil
	case "p2sh-p2wpkh":
		return ScriptTypeP2SHP2WPKH, nil
	case "p2wpkh":
		return ScriptTypeP2WPKH, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownScriptType, name)
	}
}

// ScriptTypeFromPath infers the script type from a 3-segment hardened
// derivation path. The purpose segment must be 44, 49 or 84 and all three
// segments must be hardened: a matching purpose with any unhardened segment
// fails with ErrNotHardened, anything else with ErrInvalidPath.
func ScriptTypeFromPath(path keyexpr.DerivationPath) (ScriptType, error) {
	if len(path) == 3 {
		purpose := path[0] &^ uint32(hdkeychain.HardenedKeyStart)
		var scriptType ScriptType
		known := true
		switch purpose {
		case 44:
			scriptType = ScriptTypeP2PKH
		case 49:
			scriptType = ScriptTypeP2SHP2WPKH
		case 84:
			scriptType = ScriptTypeP2WPKH
		default:
			known = false
		}
		if known {
			for _, step := range path {
				if step < hdkeychain.HardenedKeyStart {
					return 0, ErrNotHardened
				}
			}
			return scriptType, nil
		}
	}
	return 0, fmt.Errorf("%w: %v", ErrInvalidPath, []uint32(path))
}
