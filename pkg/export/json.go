// Package export declares the JSON shapes of the wallet export files the
// library understands. The types are deliberately permissive, unknown fields
// are ignored so that vendor-specific extras never break decoding.
package export

// SingleSig is one script-type entry of a generic JSON export.
type SingleSig struct {
	// Name is the script type, one of "p2pkh", "p2sh-p2wpkh" and "p2wpkh".
	Name string `json:"name"`
	// Xfp is the master fingerprint as 8 hex chars.
	Xfp string `json:"xfp"`
	// Deriv is the derivation path of the xpub, with or without the "m/"
	// prefix.
	Deriv string `json:"deriv"`
	// Xpub is the extended public key, in any of the xpub, ypub and zpub
	// encodings.
	Xpub string `json:"xpub"`
	// Desc is an optional ready-made descriptor. When present it wins over
	// the other fields.
	Desc string `json:"desc"`
	// First is the first receive address, unused but common in exports.
	First string `json:"first"`
}

// GenericJSON is the multi-account export produced by ColdCard and friends,
// one sub-object per BIP.
type GenericJSON struct {
	Chain string `json:"chain"`
	// Xfp is the top-level master fingerprint, used when a sub-object omits
	// its own.
	Xfp           string     `json:"xfp"`
	XpubMaster    string     `json:"xpub"`
	AccountNumber *uint32    `json:"account"`
	BIP44         *SingleSig `json:"bip44"`
	BIP49         *SingleSig `json:"bip49"`
	BIP84         *SingleSig `json:"bip84"`
}

// HasSingleSig reports whether at least one BIP sub-object is present.
func (g *GenericJSON) HasSingleSig() bool {
	return g.BIP44 != nil || g.BIP49 != nil || g.BIP84 != nil
}

// WasabiJSON is the Wasabi wallet export. ColdCard produces the same shape.
// The xpub is always a BIP-84 account key.
type WasabiJSON struct {
	ColdCardFirmwareVersion string `json:"ColdCardFirmwareVersion"`
	MasterFingerprint       string `json:"MasterFingerprint"`
	ExtPubKey               string `json:"ExtPubKey"`
}

// Keystore is the signing key section of an Electrum wallet file.
type Keystore struct {
	// Derivation is the keystore path with the "m/" prefix, e.g. "m/84h/0h/0h".
	Derivation string `json:"derivation"`
	Xpub       string `json:"xpub"`
	// CkccXfp is the ColdCard master fingerprint as a little-endian integer.
	CkccXfp *uint32 `json:"ckcc_xfp"`
	// CkccXpub is the ColdCard master xpub, an alternative fingerprint source.
	CkccXpub string `json:"ckcc_xpub"`
	Label    string `json:"label"`
	Type     string `json:"type"`
}

// ElectrumJSON is an Electrum wallet file, reduced to the fields needed to
// recover the watch-only descriptors.
type ElectrumJSON struct {
	Keystore      Keystore `json:"keystore"`
	WalletType    string   `json:"wallet_type"`
	SeedVersion   *uint32  `json:"seed_version"`
	UseEncryption *bool    `json:"use_encryption"`
}
