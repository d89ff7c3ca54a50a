package descriptor

import (
	"encoding/json"
	"testing"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/pubport/pkg/export"
	"github.com/tdex-network/pubport/pkg/keyexpr"
	"github.com/tdex-network/pubport/pkg/xpub"
)

const (
	testFingerprint = "817e7be0"
	testAccountXpub = "xpub6CiKnWv7PPyyeb4kCwK4fidKqVjPfD9TP6MiXnzBVGZYNanNdY3mMvywcrdDc6wK82jyBSd95vsk26QujnJWPrSaPfYeyW7NyX37HHGtfQM"
	testAccountZpub = "zpub6rNrPrFwgm4wMBSysetK5tpLBS2HYT8TDKQA6amxFHKJUnQq8rNtc4JDfGYPbvF9wJyagPpG1Faqnfe3BB8XzKon8LwW9KkMWyAQ4RQHzB1"
	testMasterXpub  = "xpub661MyMwAqRbcFFr2SGY3dUn7g8P9VKNZdKWL2Z2pZMEkBWH2D1KTcwTn7keZQCaScCx7BUDjHFJJHnzBvDgUFgNjYsQTRvo7LWfYEtt78Pb"
	testPub         = "0260b2003c386519fc9eadf2b5cf124dd8eea4c4e68d5e154050a9346ea98ce600"

	testMultipathLine = "wpkh([817e7be0/84h/0h/0h]" + testAccountXpub + "/<0;1>/*)#w0e4mgcl"

	wantExternal = "wpkh([817e7be0/84'/0'/0']" + testAccountXpub + "/0/*)"
	wantInternal = "wpkh([817e7be0/84'/0'/0']" + testAccountXpub + "/1/*)"
)

func hardened(i uint32) uint32 {
	return hdkeychain.HardenedKeyStart + i
}

func TestFromLine(t *testing.T) {
	descriptors, err := FromLine(testMultipathLine)
	require.NoError(t, err)

	assert.Equal(t, wantExternal, descriptors.External.String())
	assert.Equal(t, wantInternal, descriptors.Internal.String())
	assert.Equal(t, testFingerprint, descriptors.MasterFingerprint())
	assert.Equal(t, testAccountXpub, descriptors.Xpub())

	// both chains share everything but the branch index
	external, internal := descriptors.External.String(), descriptors.Internal.String()
	require.Equal(t, len(external), len(internal))
	diff := 0
	for i := range external {
		if external[i] != internal[i] {
			diff++
		}
	}
	assert.Equal(t, 1, diff)
}

func TestFromLineRequiresMultipath(t *testing.T) {
	_, err := FromLine(wantExternal)
	assert.ErrorIs(t, err, ErrMissingKeys)
}

func TestFromLineTooManyBranches(t *testing.T) {
	line := "wpkh([817e7be0/84h/0h/0h]" + testAccountXpub + "/<0;1;2>/*)"
	_, err := FromLine(line)
	assert.ErrorIs(t, err, ErrTooManyKeys)
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
		err   error
	}{
		{"unknown script", "tr(" + testAccountXpub + ")", ErrMalformedDescriptor},
		{"unbalanced parens", "wpkh(" + testAccountXpub, ErrMalformedDescriptor},
		{"bare pubkey", "wpkh(" + testPub + ")", ErrSinglePubkeyNotSupported},
		{
			"wildcard not last",
			"wpkh(" + testAccountXpub + "/*/0)",
			ErrMalformedDescriptor,
		},
		{
			"multiple multipath steps",
			"wpkh(" + testAccountXpub + "/<0;1>/<0;1>/*)",
			ErrMalformedDescriptor,
		},
		{
			"single multipath index",
			"wpkh(" + testAccountXpub + "/<0>/*)",
			ErrMalformedDescriptor,
		},
		{
			"bad fingerprint",
			"wpkh([deadbef/84h/0h/0h]" + testAccountXpub + "/<0;1>/*)",
			ErrMalformedDescriptor,
		},
		{
			"index out of range",
			"wpkh(" + testAccountXpub + "/2147483648/*)",
			keyexpr.ErrDerivationIndexOutOfRange,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestFromString(t *testing.T) {
	t.Run("single multipath line", func(t *testing.T) {
		descriptors, err := FromString(testMultipathLine + "\n")
		require.NoError(t, err)
		assert.Equal(t, wantExternal, descriptors.External.String())
		assert.Equal(t, wantInternal, descriptors.Internal.String())
	})

	t.Run("two plain lines", func(t *testing.T) {
		content := "wpkh([817e7be0/84h/0h/0h]" + testAccountXpub + "/0/*)\n" +
			"wpkh([817e7be0/84h/0h/0h]" + testAccountXpub + "/1/*)\n"
		descriptors, err := FromString(content)
		require.NoError(t, err)
		assert.Equal(t, wantExternal, descriptors.External.String())
		assert.Equal(t, wantInternal, descriptors.Internal.String())
	})

	t.Run("json wrapper with extra fields", func(t *testing.T) {
		content := `{"label": "my wallet", "blockheight": 800000, ` +
			`"descriptor": "` + testMultipathLine + `"}`
		descriptors, err := FromString(content)
		require.NoError(t, err)
		assert.Equal(t, wantExternal, descriptors.External.String())
	})

	t.Run("json wrapper without descriptor", func(t *testing.T) {
		_, err := FromString(`{"label": "my wallet"}`)
		assert.ErrorIs(t, err, ErrMissingDescriptor)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := FromString("\n\n")
		assert.ErrorIs(t, err, ErrMissingDescriptor)
	})

	t.Run("too many lines", func(t *testing.T) {
		line := "wpkh(" + testAccountXpub + "/0/*)\n"
		_, err := FromString(line + line + line)
		assert.ErrorIs(t, err, ErrTooManyKeys)
	})
}

func TestFromSingleSig(t *testing.T) {
	t.Run("loose fields", func(t *testing.T) {
		descriptors, err := FromSingleSig(&export.SingleSig{
			Name:  "p2wpkh",
			Xfp:   "817E7BE0",
			Deriv: "m/84h/0h/0h",
			Xpub:  testAccountXpub,
		}, "")
		require.NoError(t, err)
		assert.Equal(t, wantExternal, descriptors.External.String())
		assert.Equal(t, wantInternal, descriptors.Internal.String())
	})

	t.Run("desc field wins", func(t *testing.T) {
		descriptors, err := FromSingleSig(&export.SingleSig{
			Name: "p2pkh",
			Desc: testMultipathLine,
		}, "")
		require.NoError(t, err)
		assert.Equal(t, ScriptTypeP2WPKH, descriptors.External.Script)
	})

	t.Run("fallback fingerprint", func(t *testing.T) {
		descriptors, err := FromSingleSig(&export.SingleSig{
			Name:  "p2wpkh",
			Deriv: "m/84h/0h/0h",
			Xpub:  testAccountXpub,
		}, "817E7BE0")
		require.NoError(t, err)
		assert.Equal(t, testFingerprint, descriptors.MasterFingerprint())
	})

	t.Run("missing fields", func(t *testing.T) {
		tests := []struct {
			name      string
			singleSig *export.SingleSig
			err       error
		}{
			{
				"unknown script type",
				&export.SingleSig{Name: "p2tr"},
				ErrUnknownScriptType,
			},
			{
				"missing xpub",
				&export.SingleSig{Name: "p2wpkh"},
				ErrMissingXpub,
			},
			{
				"missing fingerprint",
				&export.SingleSig{Name: "p2wpkh", Xpub: testAccountXpub},
				ErrMissingFingerprint,
			},
			{
				"missing derivation path",
				&export.SingleSig{
					Name: "p2wpkh", Xpub: testAccountXpub, Xfp: testFingerprint,
				},
				ErrMissingDerivationPath,
			},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := FromSingleSig(tt.singleSig, "")
				assert.ErrorIs(t, err, tt.err)
			})
		}
	})
}

func TestFromChildXpub(t *testing.T) {
	key, err := xpub.NewFromString(testAccountXpub)
	require.NoError(t, err)

	for _, scriptType := range AllScriptTypes {
		descriptors, err := FromChildXpub(key, scriptType)
		require.NoError(t, err)
		assert.Equal(
			t,
			scriptType.Wrap("[00000000/"+scriptType.DerivationPath()+"]"+testAccountXpub+"/0/*"),
			descriptors.External.String(),
		)
		// an all-zero fingerprint means unknown
		assert.Empty(t, descriptors.MasterFingerprint())
	}

	master, err := xpub.NewFromString(testMasterXpub)
	require.NoError(t, err)
	_, err = FromChildXpub(master, ScriptTypeP2WPKH)
	assert.ErrorIs(t, err, ErrMasterXpub)
}

func TestFromKeyExpression(t *testing.T) {
	tests := []struct {
		input      string
		scriptType ScriptType
	}{
		{"[817e7be0/44h/0h/0h]" + testAccountXpub, ScriptTypeP2PKH},
		{"[817e7be0/49'/0'/0']" + testAccountXpub, ScriptTypeP2SHP2WPKH},
		{"[817e7be0/84h/0h/0h]" + testAccountXpub + "/0/*", ScriptTypeP2WPKH},
	}
	for _, tt := range tests {
		expr, err := keyexpr.Parse(tt.input)
		require.NoError(t, err)
		descriptors, err := FromKeyExpression(expr)
		require.NoError(t, err)
		assert.Equal(t, tt.scriptType, descriptors.External.Script)
		assert.Equal(t, testFingerprint, descriptors.MasterFingerprint())
	}

	expr, err := keyexpr.Parse(testAccountXpub)
	require.NoError(t, err)
	_, err = FromKeyExpression(expr)
	assert.ErrorIs(t, err, ErrMissingKeyExpressionFields)
}

func TestFromWasabi(t *testing.T) {
	descriptors, err := FromWasabi(&export.WasabiJSON{
		MasterFingerprint: "817E7BE0",
		ExtPubKey:         testAccountZpub,
	})
	require.NoError(t, err)
	// the zpub is canonicalized and the BIP-84 path assumed
	assert.Equal(t, wantExternal, descriptors.External.String())
	assert.Equal(t, wantInternal, descriptors.Internal.String())

	_, err = FromWasabi(&export.WasabiJSON{MasterFingerprint: "817E7BE0"})
	assert.ErrorIs(t, err, ErrMissingXpub)

	_, err = FromWasabi(&export.WasabiJSON{ExtPubKey: testAccountZpub})
	assert.ErrorIs(t, err, ErrMissingFingerprint)
}

func TestFromElectrum(t *testing.T) {
	ckccXfp := uint32(3766189697) // 0xe07b7e81, little-endian for 817e7be0

	t.Run("fingerprint from ckcc_xfp", func(t *testing.T) {
		descriptors, err := FromElectrum(&export.ElectrumJSON{
			Keystore: export.Keystore{
				Derivation: "m/84h/0h/0h",
				Xpub:       testAccountZpub,
				CkccXfp:    &ckccXfp,
			},
		})
		require.NoError(t, err)
		assert.Equal(t, wantExternal, descriptors.External.String())
	})

	t.Run("fingerprint from ckcc_xpub", func(t *testing.T) {
		descriptors, err := FromElectrum(&export.ElectrumJSON{
			Keystore: export.Keystore{
				Derivation: "m/84h/0h/0h",
				Xpub:       testAccountZpub,
				CkccXpub:   testMasterXpub,
			},
		})
		require.NoError(t, err)
		assert.Equal(t, testFingerprint, descriptors.MasterFingerprint())
	})

	t.Run("fingerprint from keystore xpub", func(t *testing.T) {
		descriptors, err := FromElectrum(&export.ElectrumJSON{
			Keystore: export.Keystore{
				Derivation: "m/84h/0h/0h",
				Xpub:       testAccountZpub,
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "90645a28", descriptors.MasterFingerprint())
	})

	t.Run("keystore xpub with zeroed parent fingerprint", func(t *testing.T) {
		descriptors, err := FromElectrum(&export.ElectrumJSON{
			Keystore: export.Keystore{
				Derivation: "m/84h/0h/0h",
				Xpub:       testMasterXpub,
			},
		})
		require.NoError(t, err)
		// resolves to the key's own fingerprint, never all-zero
		assert.Equal(t, testFingerprint, descriptors.MasterFingerprint())
	})

	t.Run("script type from derivation prefix", func(t *testing.T) {
		tests := []struct {
			derivation string
			scriptType ScriptType
		}{
			{"m/44h/0h/0h", ScriptTypeP2PKH},
			{"m/49h/0h/0h", ScriptTypeP2SHP2WPKH},
			{"m/84h/0h/0h", ScriptTypeP2WPKH},
		}
		for _, tt := range tests {
			descriptors, err := FromElectrum(&export.ElectrumJSON{
				Keystore: export.Keystore{
					Derivation: tt.derivation, Xpub: testAccountZpub,
				},
			})
			require.NoError(t, err)
			assert.Equal(t, tt.scriptType, descriptors.External.Script)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := FromElectrum(&export.ElectrumJSON{
			Keystore: export.Keystore{Derivation: "m/84h/0h/0h"},
		})
		assert.ErrorIs(t, err, ErrMissingXpub)

		_, err = FromElectrum(&export.ElectrumJSON{
			Keystore: export.Keystore{Xpub: testAccountZpub},
		})
		assert.ErrorIs(t, err, ErrMissingDerivationPath)

		_, err = FromElectrum(&export.ElectrumJSON{
			Keystore: export.Keystore{
				Derivation: "m/86h/0h/0h", Xpub: testAccountZpub,
			},
		})
		assert.ErrorIs(t, err, ErrMissingScriptType)

		_, err = FromElectrum(&export.ElectrumJSON{
			Keystore: export.Keystore{Derivation: "m/84h/0h/0h", Xpub: "zpu"},
		})
		assert.ErrorIs(t, err, xpub.ErrTooShort)
	})
}

func TestScriptTypeFromPath(t *testing.T) {
	tests := []struct {
		path       keyexpr.DerivationPath
		scriptType ScriptType
	}{
		{keyexpr.DerivationPath{hardened(44), hardened(0), hardened(0)}, ScriptTypeP2PKH},
		{keyexpr.DerivationPath{hardened(49), hardened(0), hardened(0)}, ScriptTypeP2SHP2WPKH},
		{keyexpr.DerivationPath{hardened(84), hardened(0), hardened(5)}, ScriptTypeP2WPKH},
	}
	for _, tt := range tests {
		scriptType, err := ScriptTypeFromPath(tt.path)
		require.NoError(t, err)
		assert.Equal(t, tt.scriptType, scriptType)
	}

	_, err := ScriptTypeFromPath(keyexpr.DerivationPath{hardened(84), hardened(0), 0})
	assert.ErrorIs(t, err, ErrNotHardened)

	_, err = ScriptTypeFromPath(keyexpr.DerivationPath{hardened(86), hardened(0), hardened(0)})
	assert.ErrorIs(t, err, ErrInvalidPath)

	_, err = ScriptTypeFromPath(keyexpr.DerivationPath{hardened(84), hardened(0)})
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestDescriptorsJSON(t *testing.T) {
	descriptors, err := FromLine(testMultipathLine)
	require.NoError(t, err)

	buf, err := json.Marshal(descriptors)
	require.NoError(t, err)
	assert.JSONEq(
		t,
		`{"external": "`+wantExternal+`", "internal": "`+wantInternal+`"}`,
		string(buf),
	)

	var decoded Descriptors
	require.NoError(t, json.Unmarshal(buf, &decoded))
	assert.Equal(t, wantExternal, decoded.External.String())
	assert.Equal(t, wantInternal, decoded.Internal.String())
}
