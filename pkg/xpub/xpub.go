// Package xpub normalizes the three extended public key encodings found in
// wallet exports (xpub, ypub, zpub) to the canonical xpub encoding and
// resolves the master fingerprint of the wallet that produced the key.
package xpub

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Version bytes prepended to the 74-byte key payload before base58Check
// encoding. Only the prefix differs between the three encodings, the key
// material is identical.
var (
	xpubVersion = []byte{0x04, 0x88, 0xB2, 0x1E}
	ypubVersion = []byte{0x04, 0x9D, 0x7C, 0xB2}
	zpubVersion = []byte{0x04, 0xB2, 0x47, 0x46}
)

// Format is the encoding the source string used before canonicalization. It
// is retained for round-trips and debugging, derived values never depend on
// it.
type Format int

const (
	// FormatXpub is the canonical BIP-32 mainnet encoding
	FormatXpub Format = iota
	// FormatYpub is the BIP-49 vanity encoding
	FormatYpub
	// FormatZpub is the BIP-84 vanity encoding
	FormatZpub
)

func (f Format) String() string {
	switch f {
	case FormatYpub:
		return "ypub"
	case FormatZpub:
		return "zpub"
	default:
		return "xpub"
	}
}

// Xpub is an extended public key decoded from any of the supported encodings,
// held in canonical xpub form. Immutable once constructed.
type Xpub struct {
	key     *hdkeychain.ExtendedKey
	encoded string
	format  Format
	network *chaincfg.Params
}

// NewFromString decodes an xpub, ypub or zpub string into its canonical xpub
// form. Any other prefix fails with ErrNotExtendedKey.
func NewFromString(str string) (*Xpub, error) {
	if len(str) < 4 {
		return nil, fmt.Errorf("%w: only %d chars long", ErrTooShort, len(str))
	}

	var encoded string
	var format Format
	var err error
	switch prefix := str[:4]; prefix {
	case "zpub":
		encoded, err = zpubToXpub(str)
		format = FormatZpub
	case "ypub":
		encoded, err = ypubToXpub(str)
		format = FormatYpub
	case "xpub":
		encoded, format = str, FormatXpub
	default:
		return nil, fmt.Errorf("%w, starts with: %s", ErrNotExtendedKey, prefix)
	}
	if err != nil {
		return nil, err
	}

	key, err := hdkeychain.NewKeyFromString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExtendedKey, err)
	}
	if key.IsPrivate() {
		return nil, ErrPrivateKey
	}

	network := &chaincfg.MainNetParams
	if !key.IsForNet(network) {
		network = &chaincfg.TestNet3Params
	}

	return &Xpub{
		key:     key,
		encoded: encoded,
		format:  format,
		network: network,
	}, nil
}

// String returns the canonical xpub encoding.
func (x *Xpub) String() string {
	return x.encoded
}

// Format returns the encoding of the source string.
func (x *Xpub) Format() Format {
	return x.format
}

// Depth returns the BIP-32 depth of the key, 0 for a master key.
func (x *Xpub) Depth() uint8 {
	return x.key.Depth()
}

// Network returns the network params matching the key's version bytes.
func (x *Xpub) Network() *chaincfg.Params {
	return x.network
}

// Key returns the underlying extended key.
func (x *Xpub) Key() *hdkeychain.ExtendedKey {
	return x.key
}

// MasterFingerprint returns the 4-byte fingerprint identifying the master key
// this key was derived from. When the stored parent fingerprint is all-zero,
// as for a master key or an export with stripped parent metadata, the key's
// own fingerprint is returned instead.
func (x *Xpub) MasterFingerprint() ([]byte, error) {
	if parent := x.key.ParentFingerprint(); parent != 0 {
		fingerprint := make([]byte, 4)
		binary.BigEndian.PutUint32(fingerprint, parent)
		return fingerprint, nil
	}

	pubKey, err := x.key.ECPubKey()
	if err != nil {
		return nil, err
	}
	return btcutil.Hash160(pubKey.SerializeCompressed())[:4], nil
}

// MasterFingerprintHex returns the master fingerprint as 8 lowercase hex
// chars, the form used inside descriptor key origins.
func (x *Xpub) MasterFingerprintHex() (string, error) {
	fingerprint, err := x.MasterFingerprint()
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(fingerprint), nil
}

// ToYpub re-encodes the canonical key with ypub version bytes.
func (x *Xpub) ToYpub() (string, error) {
	return swapVersion(x.encoded, ypubVersion)
}

// ToZpub re-encodes the canonical key with zpub version bytes.
func (x *Xpub) ToZpub() (string, error) {
	return swapVersion(x.encoded, zpubVersion)
}

// zpubToXpub overwrites the version bytes of a zpub with the canonical xpub
// version and re-encodes.
func zpubToXpub(zpub string) (string, error) {
	decoded, err := decodeCheck(zpub)
	if err != nil {
		return "", err
	}
	payload := make([]byte, 0, len(decoded))
	payload = append(payload, xpubVersion...)
	payload = append(payload, decoded[4:]...)
	return encodeCheck(payload), nil
}

// ypubToXpub is zpubToXpub for ypubs, with the decoded length asserted to be
// exactly 78 bytes.
func ypubToXpub(ypub string) (string, error) {
	decoded, err := decodeCheck(ypub)
	if err != nil {
		return "", err
	}
	if len(decoded) != 78 {
		return "", fmt.Errorf("%w, was %d", ErrInvalidLength, len(decoded))
	}
	payload := make([]byte, 78)
	copy(payload, xpubVersion)
	copy(payload[4:], decoded[4:])
	return encodeCheck(payload), nil
}

func swapVersion(encoded string, version []byte) (string, error) {
	decoded, err := decodeCheck(encoded)
	if err != nil {
		return "", err
	}
	payload := make([]byte, 0, len(decoded))
	payload = append(payload, version...)
	payload = append(payload, decoded[4:]...)
	return encodeCheck(payload), nil
}

// decodeCheck decodes a base58Check string with a 4-byte double-SHA256
// checksum, the serialization used by BIP-32 keys.
func decodeCheck(str string) ([]byte, error) {
	decoded := base58.Decode(str)
	if len(decoded) < 8 {
		return nil, fmt.Errorf("%w: only %d chars long", ErrTooShort, len(str))
	}
	payload := decoded[:len(decoded)-4]
	checksum := chainhash.DoubleHashB(payload)[:4]
	if !bytes.Equal(checksum, decoded[len(decoded)-4:]) {
		return nil, ErrInvalidChecksum
	}
	return payload, nil
}

func encodeCheck(payload []byte) string {
	checksum := chainhash.DoubleHashB(payload)[:4]
	return base58.Encode(append(payload, checksum...))
}

// MasterFingerprintFromString resolves the master fingerprint of an extended
// key given in any supported encoding.
func MasterFingerprintFromString(str string) (string, error) {
	key, err := NewFromString(strings.TrimSpace(str))
	if err != nil {
		return "", err
	}
	return key.MasterFingerprintHex()
}
