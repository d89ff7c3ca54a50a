package descriptor

import (
	"encoding/json"
	"fmt"
	"math/bits"
	"strings"

	"github.com/tdex-network/pubport/pkg/export"
	"github.com/tdex-network/pubport/pkg/keyexpr"
	"github.com/tdex-network/pubport/pkg/xpub"
)

// Descriptors is the watch-only wallet pair, one descriptor per chain.
type Descriptors struct {
	// External is the receive chain descriptor.
	External *Descriptor
	// Internal is the change chain descriptor.
	Internal *Descriptor
}

// FromLine parses a multipath descriptor line and splits it into the pair. A
// line describing a single chain fails with ErrMissingKeys, both chains must
// be recoverable from the export.
func FromLine(line string) (*Descriptors, error) {
	d, err := Parse(line)
	if err != nil {
		return nil, err
	}
	if !d.IsMultipath() {
		return nil, ErrMissingKeys
	}
	singles := d.SingleDescriptors()
	if len(singles) > 2 {
		return nil, fmt.Errorf("%w, found %d", ErrTooManyKeys, len(singles))
	}
	return &Descriptors{External: singles[0], Internal: singles[1]}, nil
}

// Assemble builds the canonical multipath line for the given script type and
// key origin and splits it into the pair. The xpub may be given in any
// supported encoding, the path with either hardened notation.
func Assemble(
	scriptType ScriptType, fingerprint, path, xpubText string,
) (*Descriptors, error) {
	line := scriptType.Wrap(fmt.Sprintf(
		"[%s/%s]%s/<0;1>/*", strings.ToLower(fingerprint), path, xpubText,
	))
	return FromLine(line)
}

// FromString parses a descriptor export, either a text file with one
// multipath line or two plain lines (external first), or a JSON object with
// a "descriptor" field.
func FromString(content string) (*Descriptors, error) {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "{") {
		wrapper := struct {
			Descriptor string `json:"descriptor"`
		}{}
		if err := json.Unmarshal([]byte(content), &wrapper); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedDescriptor, err)
		}
		if wrapper.Descriptor == "" {
			return nil, ErrMissingDescriptor
		}
		return FromLine(wrapper.Descriptor)
	}

	lines := make([]string, 0, 2)
	for _, line := range strings.Split(content, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}

	switch len(lines) {
	case 0:
		return nil, ErrMissingDescriptor
	case 1:
		return FromLine(lines[0])
	case 2:
		external, err := Parse(lines[0])
		if err != nil {
			return nil, err
		}
		internal, err := Parse(lines[1])
		if err != nil {
			return nil, err
		}
		return &Descriptors{External: external, Internal: internal}, nil
	default:
		return nil, fmt.Errorf("%w, found %d", ErrTooManyKeys, len(lines))
	}
}

// FromSingleSig builds the pair from one script-type entry of a generic JSON
// export. A ready-made desc field wins over the loose fields, the fingerprint
// argument fills in for a missing xfp.
func FromSingleSig(
	singleSig *export.SingleSig, fingerprint string,
) (*Descriptors, error) {
	if desc := strings.TrimSpace(singleSig.Desc); desc != "" {
		return FromLine(desc)
	}

	scriptType, err := ScriptTypeFromName(singleSig.Name)
	if err != nil {
		return nil, err
	}
	if singleSig.Xpub == "" {
		return nil, ErrMissingXpub
	}
	if singleSig.Xfp != "" {
		fingerprint = singleSig.Xfp
	}
	if fingerprint == "" {
		return nil, ErrMissingFingerprint
	}
	if singleSig.Deriv == "" {
		return nil, ErrMissingDerivationPath
	}
	path := strings.TrimPrefix(singleSig.Deriv, "m/")

	return Assemble(scriptType, fingerprint, path, singleSig.Xpub)
}

// FromChildXpub builds the pair for a bare account-level key, assuming the
// conventional derivation path of the script type. The fingerprint is unknown
// and set to all-zero.
func FromChildXpub(key *xpub.Xpub, scriptType ScriptType) (*Descriptors, error) {
	if key.Depth() == 0 {
		return nil, ErrMasterXpub
	}
	return Assemble(
		scriptType, "00000000", scriptType.DerivationPath(), key.String(),
	)
}

// FromKeyExpression builds the pair from a parsed key expression. The origin
// path decides the script type, any trailing path is discarded.
func FromKeyExpression(expr *keyexpr.KeyExpression) (*Descriptors, error) {
	if !expr.HasOrigin() {
		return nil, ErrMissingKeyExpressionFields
	}
	scriptType, err := ScriptTypeFromPath(expr.OriginPath)
	if err != nil {
		return nil, err
	}
	return Assemble(
		scriptType, expr.MasterFingerprint, expr.OriginPath.String(),
		expr.Key.String(),
	)
}

// FromWasabi builds the pair from a Wasabi wallet file. The exported key is
// always the BIP-84 account key.
func FromWasabi(wallet *export.WasabiJSON) (*Descriptors, error) {
	if wallet.ExtPubKey == "" {
		return nil, ErrMissingXpub
	}
	if wallet.MasterFingerprint == "" {
		return nil, ErrMissingFingerprint
	}
	return Assemble(
		ScriptTypeP2WPKH, wallet.MasterFingerprint,
		ScriptTypeP2WPKH.DerivationPath(), wallet.ExtPubKey,
	)
}

// FromElectrum builds the pair from an Electrum wallet file. The keystore
// derivation prefix decides the script type. The master fingerprint comes
// from ckcc_xfp when present, then from ckcc_xpub, and as a last resort from
// the keystore xpub itself.
func FromElectrum(wallet *export.ElectrumJSON) (*Descriptors, error) {
	keystore := wallet.Keystore
	if keystore.Xpub == "" {
		return nil, ErrMissingXpub
	}
	if keystore.Derivation == "" {
		return nil, ErrMissingDerivationPath
	}

	var scriptType ScriptType
	switch {
	case strings.HasPrefix(keystore.Derivation, "m/84"):
		scriptType = ScriptTypeP2WPKH
	case strings.HasPrefix(keystore.Derivation, "m/49"):
		scriptType = ScriptTypeP2SHP2WPKH
	case strings.HasPrefix(keystore.Derivation, "m/44"):
		scriptType = ScriptTypeP2PKH
	default:
		return nil, fmt.Errorf(
			"%w: unexpected derivation %s", ErrMissingScriptType,
			keystore.Derivation,
		)
	}

	key, err := xpub.NewFromString(keystore.Xpub)
	if err != nil {
		return nil, err
	}

	var fingerprint string
	switch {
	case keystore.CkccXfp != nil:
		// electrum stores the coldcard fingerprint as a little-endian integer
		fingerprint = fmt.Sprintf("%08x", bits.ReverseBytes32(*keystore.CkccXfp))
	case keystore.CkccXpub != "":
		fingerprint, err = xpub.MasterFingerprintFromString(keystore.CkccXpub)
	default:
		fingerprint, err = key.MasterFingerprintHex()
	}
	if err != nil {
		return nil, err
	}

	path := strings.TrimPrefix(keystore.Derivation, "m/")
	return Assemble(scriptType, fingerprint, path, key.String())
}

// MasterFingerprint returns the fingerprint of the key origin, empty when
// unknown.
func (d *Descriptors) MasterFingerprint() string {
	if d.External == nil || d.External.Fingerprint == "00000000" {
		return ""
	}
	return d.External.Fingerprint
}

// Xpub returns the canonical account key shared by both chains.
func (d *Descriptors) Xpub() string {
	if d.External == nil || d.External.Key == nil {
		return ""
	}
	return d.External.Key.String()
}

type descriptorsJSON struct {
	External string `json:"external"`
	Internal string `json:"internal"`
}

// MarshalJSON renders both descriptors in canonical form.
func (d *Descriptors) MarshalJSON() ([]byte, error) {
	return json.Marshal(descriptorsJSON{
		External: d.External.String(),
		Internal: d.Internal.String(),
	})
}

// UnmarshalJSON parses both descriptors from their canonical form.
func (d *Descriptors) UnmarshalJSON(data []byte) error {
	var raw descriptorsJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	external, err := Parse(raw.External)
	if err != nil {
		return err
	}
	internal, err := Parse(raw.Internal)
	if err != nil {
		return err
	}
	d.External, d.Internal = external, internal
	return nil
}
