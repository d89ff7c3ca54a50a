// Package pubport recovers the watch-only descriptor pair of a single-sig
// wallet from any of the common public key export formats: generic JSON
// exports, Wasabi and Electrum wallet files, descriptor files and bare key
// expressions.
package pubport

import (
	"encoding/json"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/tdex-network/pubport/pkg/descriptor"
	"github.com/tdex-network/pubport/pkg/export"
	"github.com/tdex-network/pubport/pkg/keyexpr"
)

// Format is the recognized shape of an export, each variant carrying the
// descriptor pairs recovered from it.
type Format interface {
	// Name is a short lowercase identifier of the format.
	Name() string

	format()
}

// DescriptorFormat is an export that was already a descriptor, either a text
// file or a JSON object wrapping a "descriptor" field.
type DescriptorFormat struct {
	Descriptors *descriptor.Descriptors
}

func (f *DescriptorFormat) Name() string { return "descriptor" }
func (f *DescriptorFormat) format()      {}

// JSONFormat is a generic multi-account JSON export, one descriptor pair per
// BIP. At least one of the three is always set. A bare extended key also
// yields this shape, with all three pairs synthesized.
type JSONFormat struct {
	BIP44 *descriptor.Descriptors
	BIP49 *descriptor.Descriptors
	BIP84 *descriptor.Descriptors
}

func (f *JSONFormat) Name() string { return "json" }
func (f *JSONFormat) format()      {}

// WasabiFormat is a Wasabi or ColdCard wallet file.
type WasabiFormat struct {
	Descriptors *descriptor.Descriptors
}

func (f *WasabiFormat) Name() string { return "wasabi" }
func (f *WasabiFormat) format()      {}

// ElectrumFormat is an Electrum wallet file.
type ElectrumFormat struct {
	Descriptors *descriptor.Descriptors
}

func (f *ElectrumFormat) Name() string { return "electrum" }
func (f *ElectrumFormat) format()      {}

// KeyExpressionFormat is a single key expression with a key origin.
type KeyExpressionFormat struct {
	Descriptors *descriptor.Descriptors
}

func (f *KeyExpressionFormat) Name() string { return "key expression" }
func (f *KeyExpressionFormat) format()      {}

// Parse detects the format of an export and recovers its descriptors. The
// candidate formats are tried in a fixed order and the error of the last
// matching candidate is returned when none succeeds.
func Parse(input string) (Format, error) {
	input = strings.TrimSpace(input)
	if strings.HasPrefix(input, "{") {
		return parseJSON(input)
	}
	return parseText(input)
}

// parseJSON tries the JSON shapes in order: generic export, Wasabi, Electrum
// and the descriptor wrapper. A candidate whose discriminating fields are all
// absent is skipped without touching the reported error.
func parseJSON(input string) (Format, error) {
	data := []byte(input)

	var generic export.GenericJSON
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	lastErr := error(nil)
	if generic.HasSingleSig() {
		format, err := jsonFormat(&generic)
		if err == nil {
			return format, nil
		}
		log.WithError(err).Debug("input is not a valid generic json export")
		lastErr = err
	} else {
		lastErr = ErrNoDescriptor
	}

	var wasabi export.WasabiJSON
	if err := json.Unmarshal(data, &wasabi); err == nil &&
		(wasabi.MasterFingerprint != "" || wasabi.ExtPubKey != "") {
		descriptors, err := descriptor.FromWasabi(&wasabi)
		if err == nil {
			return &WasabiFormat{Descriptors: descriptors}, nil
		}
		log.WithError(err).Debug("input is not a valid wasabi export")
		lastErr = err
	}

	var electrum export.ElectrumJSON
	if err := json.Unmarshal(data, &electrum); err == nil &&
		electrum.Keystore != (export.Keystore{}) {
		descriptors, err := descriptor.FromElectrum(&electrum)
		if err == nil {
			return &ElectrumFormat{Descriptors: descriptors}, nil
		}
		log.WithError(err).Debug("input is not a valid electrum export")
		lastErr = err
	}

	wrapper := struct {
		Descriptor string `json:"descriptor"`
	}{}
	if err := json.Unmarshal(data, &wrapper); err == nil && wrapper.Descriptor != "" {
		descriptors, err := descriptor.FromLine(wrapper.Descriptor)
		if err == nil {
			return &DescriptorFormat{Descriptors: descriptors}, nil
		}
		log.WithError(err).Debug("input is not a valid wrapped descriptor")
		lastErr = err
	}

	return nil, lastErr
}

// parseText tries a descriptor file first and falls back to a single key
// expression, bare extended keys included.
func parseText(input string) (Format, error) {
	descriptors, err := descriptor.FromString(input)
	if err == nil {
		return &DescriptorFormat{Descriptors: descriptors}, nil
	}
	log.WithError(err).Debug("input is not a descriptor file")

	expr, exprErr := keyexpr.Parse(input)
	if exprErr != nil {
		log.WithError(exprErr).Debug("input is not a key expression")
		return nil, exprErr
	}

	if expr.HasOrigin() {
		descriptors, err := descriptor.FromKeyExpression(expr)
		if err != nil {
			return nil, err
		}
		return &KeyExpressionFormat{Descriptors: descriptors}, nil
	}

	// a bare account key carries no origin info, assume the conventional
	// path of every script type
	format := &JSONFormat{}
	for _, entry := range []struct {
		scriptType descriptor.ScriptType
		target     **descriptor.Descriptors
	}{
		{descriptor.ScriptTypeP2PKH, &format.BIP44},
		{descriptor.ScriptTypeP2SHP2WPKH, &format.BIP49},
		{descriptor.ScriptTypeP2WPKH, &format.BIP84},
	} {
		descriptors, err := descriptor.FromChildXpub(expr.Key, entry.scriptType)
		if err != nil {
			return nil, err
		}
		*entry.target = descriptors
	}
	return format, nil
}

// jsonFormat builds the per-BIP pairs of a generic export, the top-level xfp
// filling in for entries without their own.
func jsonFormat(generic *export.GenericJSON) (*JSONFormat, error) {
	format := &JSONFormat{}
	for _, entry := range []struct {
		singleSig *export.SingleSig
		target    **descriptor.Descriptors
	}{
		{generic.BIP44, &format.BIP44},
		{generic.BIP49, &format.BIP49},
		{generic.BIP84, &format.BIP84},
	} {
		if entry.singleSig == nil {
			continue
		}
		descriptors, err := descriptor.FromSingleSig(entry.singleSig, generic.Xfp)
		if err != nil {
			return nil, err
		}
		*entry.target = descriptors
	}
	return format, nil
}
