// Package descriptor assembles and parses single-sig output descriptors in
// the pkh, sh(wpkh) and wpkh templates, the interchange format shared by all
// supported wallet exports. A wallet is always represented as a pair of
// descriptors, one for the external (receive) chain and one for the internal
// (change) chain.
package descriptor

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/tdex-network/pubport/pkg/keyexpr"
	"github.com/tdex-network/pubport/pkg/xpub"
)

type stepKind int

const (
	stepIndex stepKind = iota
	stepBranch
	stepWildcard
	stepWildcardHardened
)

// pathStep is one "/..." element after the key inside a descriptor. A branch
// step holds the indices of a <ext;int;...> multipath marker.
type pathStep struct {
	kind     stepKind
	index    uint32
	branches []uint32
}

// Descriptor is a parsed single-key output descriptor.
type Descriptor struct {
	// Script is the output template the key is wrapped in.
	Script ScriptType
	// Fingerprint is the master fingerprint of the key origin as 8 lowercase
	// hex chars, empty when the descriptor has no origin.
	Fingerprint string
	// OriginPath is the derivation path of the key origin, nil when absent.
	OriginPath keyexpr.DerivationPath
	// Key is the extended public key, canonicalized to xpub form.
	Key *xpub.Xpub
	// Checksum is the "#"-suffix found on the input, if any. It is carried
	// verbatim and never validated nor re-rendered.
	Checksum string

	steps []pathStep
}

// Parse parses a single descriptor line. The trailing "#checksum" is accepted
// and ignored, hardened steps may use either "h" or "'", and the derivation
// after the key may contain one <ext;int> multipath marker.
func Parse(line string) (*Descriptor, error) {
	line = strings.TrimSpace(line)

	checksum := ""
	if hash := strings.IndexByte(line, '#'); hash >= 0 {
		checksum = line[hash+1:]
		line = line[:hash]
	}

	script, inner, err := unwrapScript(line)
	if err != nil {
		return nil, err
	}

	d := &Descriptor{Script: script, Checksum: checksum}

	if strings.HasPrefix(inner, "[") {
		closing := strings.IndexByte(inner, ']')
		if closing < 0 {
			return nil, fmt.Errorf("%w: unterminated key origin", ErrMalformedDescriptor)
		}
		fingerprint, originPath, err := parseOrigin(inner[1:closing])
		if err != nil {
			return nil, err
		}
		d.Fingerprint, d.OriginPath = fingerprint, originPath
		inner = inner[closing+1:]
	}

	keyText := inner
	if slash := strings.IndexByte(inner, '/'); slash >= 0 {
		keyText = inner[:slash]
		steps, err := parseSteps(inner[slash+1:])
		if err != nil {
			return nil, err
		}
		d.steps = steps
	}

	if isBarePubkey(keyText) {
		return nil, ErrSinglePubkeyNotSupported
	}
	key, err := xpub.NewFromString(keyText)
	if err != nil {
		return nil, err
	}
	d.Key = key

	return d, nil
}

// unwrapScript strips the outer script function and returns the key
// expression inside it.
func unwrapScript(line string) (ScriptType, string, error) {
	for _, candidate := range []struct {
		prefix string
		suffix string
		script ScriptType
	}{
		{"sh(wpkh(", "))", ScriptTypeP2SHP2WPKH},
		{"wpkh(", ")", ScriptTypeP2WPKH},
		{"pkh(", ")", ScriptTypeP2PKH},
	} {
		if !strings.HasPrefix(line, candidate.prefix) {
			continue
		}
		if !strings.HasSuffix(line, candidate.suffix) {
			return 0, "", fmt.Errorf(
				"%w: unbalanced parentheses in %s", ErrMalformedDescriptor, line,
			)
		}
		inner := line[len(candidate.prefix) : len(line)-len(candidate.suffix)]
		return candidate.script, inner, nil
	}
	return 0, "", fmt.Errorf("%w: unsupported script in %s", ErrMalformedDescriptor, line)
}

func parseOrigin(content string) (string, keyexpr.DerivationPath, error) {
	fingerprint := content
	pathText := ""
	if slash := strings.IndexByte(content, '/'); slash >= 0 {
		fingerprint = content[:slash]
		pathText = content[slash+1:]
	}
	if len(fingerprint) != 8 {
		return "", nil, fmt.Errorf(
			"%w: bad fingerprint %q", ErrMalformedDescriptor, fingerprint,
		)
	}
	if _, err := hex.DecodeString(fingerprint); err != nil {
		return "", nil, fmt.Errorf(
			"%w: bad fingerprint %q", ErrMalformedDescriptor, fingerprint,
		)
	}
	fingerprint = strings.ToLower(fingerprint)

	if pathText == "" {
		return fingerprint, nil, nil
	}
	path, err := keyexpr.ParsePath(pathText)
	if err != nil {
		return "", nil, err
	}
	return fingerprint, path, nil
}

func parseSteps(pathText string) ([]pathStep, error) {
	segments := strings.Split(pathText, "/")
	steps := make([]pathStep, 0, len(segments))
	sawBranch := false
	for i, segment := range segments {
		last := i == len(segments)-1
		switch {
		case segment == "*":
			if !last {
				return nil, fmt.Errorf(
					"%w: wildcard must be the last step", ErrMalformedDescriptor,
				)
			}
			steps = append(steps, pathStep{kind: stepWildcard})
		case segment == "*h" || segment == "*'":
			if !last {
				return nil, fmt.Errorf(
					"%w: wildcard must be the last step", ErrMalformedDescriptor,
				)
			}
			steps = append(steps, pathStep{kind: stepWildcardHardened})
		case strings.HasPrefix(segment, "<"):
			if !strings.HasSuffix(segment, ">") {
				return nil, fmt.Errorf(
					"%w: unterminated multipath step %s", ErrMalformedDescriptor, segment,
				)
			}
			if sawBranch {
				return nil, fmt.Errorf(
					"%w: multiple multipath steps", ErrMalformedDescriptor,
				)
			}
			indices := strings.Split(segment[1:len(segment)-1], ";")
			if len(indices) < 2 {
				return nil, fmt.Errorf(
					"%w: multipath step %s must hold at least 2 indices",
					ErrMalformedDescriptor, segment,
				)
			}
			branches := make([]uint32, 0, len(indices))
			for _, text := range indices {
				index, err := keyexpr.ParseIndex(text)
				if err != nil {
					return nil, err
				}
				branches = append(branches, index)
			}
			steps = append(steps, pathStep{kind: stepBranch, branches: branches})
			sawBranch = true
		default:
			index, err := keyexpr.ParseIndex(segment)
			if err != nil {
				return nil, err
			}
			steps = append(steps, pathStep{kind: stepIndex, index: index})
		}
	}
	return steps, nil
}

// isBarePubkey reports whether the key text is a hex-encoded secp256k1 point
// rather than an extended key.
func isBarePubkey(keyText string) bool {
	raw, err := hex.DecodeString(keyText)
	if err != nil {
		return false
	}
	_, err = btcec.ParsePubKey(raw)
	return err == nil
}

// IsMultipath reports whether the descriptor carries a <ext;int> step and so
// describes both chains of a wallet at once.
func (d *Descriptor) IsMultipath() bool {
	for _, step := range d.steps {
		if step.kind == stepBranch {
			return true
		}
	}
	return false
}

// SingleDescriptors expands a multipath descriptor into one descriptor per
// branch index, each with the branch step pinned. A descriptor without a
// branch step expands to itself.
func (d *Descriptor) SingleDescriptors() []*Descriptor {
	var branches []uint32
	for _, step := range d.steps {
		if step.kind == stepBranch {
			branches = step.branches
			break
		}
	}
	if branches == nil {
		return []*Descriptor{d}
	}

	singles := make([]*Descriptor, 0, len(branches))
	for _, branch := range branches {
		clone := *d
		clone.steps = make([]pathStep, len(d.steps))
		for i, step := range d.steps {
			if step.kind == stepBranch {
				step = pathStep{kind: stepIndex, index: branch}
			}
			clone.steps[i] = step
		}
		singles = append(singles, &clone)
	}
	return singles
}

// String renders the descriptor in canonical form: hardened steps with "'",
// lowercase fingerprint and no checksum.
func (d *Descriptor) String() string {
	var sb strings.Builder
	if d.Fingerprint != "" {
		sb.WriteByte('[')
		sb.WriteString(d.Fingerprint)
		if len(d.OriginPath) > 0 {
			sb.WriteByte('/')
			sb.WriteString(d.OriginPath.String())
		}
		sb.WriteByte(']')
	}
	sb.WriteString(d.Key.String())
	for _, step := range d.steps {
		sb.WriteByte('/')
		switch step.kind {
		case stepWildcard:
			sb.WriteByte('*')
		case stepWildcardHardened:
			sb.WriteString("*'")
		case stepBranch:
			rendered := make([]string, 0, len(step.branches))
			for _, branch := range step.branches {
				rendered = append(
					rendered, keyexpr.DerivationPath{branch}.String(),
				)
			}
			sb.WriteString("<" + strings.Join(rendered, ";") + ">")
		default:
			sb.WriteString(keyexpr.DerivationPath{step.index}.String())
		}
	}
	return d.Script.Wrap(sb.String())
}
