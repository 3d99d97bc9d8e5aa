package tracker

import (
	"encoding/hex"
	"fmt"
	"maps"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/txscript"
	"github.com/goodnatureofminers/blockinsight7000-spktracker/internal/tracker/spkindex"
)

// AddSecret derives the BIP86 key-path taproot script for secret and starts
// watching it. It reports false when the script is already watched. Secrets
// live in memory only; call Reindex when transactions paying the script may
// already be stored.
func (t *Tracker) AddSecret(secret []byte) (bool, error) {
	priv, script, err := deriveTaprootScript(secret)
	if err != nil {
		return false, err
	}
	key := keyID(script)
	if !t.graph.Index().InsertSpk(script, key) {
		return false, nil
	}
	t.secrets[string(key)] = priv
	t.log.Debug("watching script", zapScript(script))
	return true, nil
}

// SecretsByScript returns the secrets keyed by hex script.
func (t *Tracker) SecretsByScript() map[string]*btcec.PrivateKey {
	return maps.Clone(t.secrets)
}

func deriveTaprootScript(secret []byte) (*btcec.PrivateKey, []byte, error) {
	if len(secret) != btcec.PrivKeyBytesLen {
		return nil, nil, fmt.Errorf("%w: secret is %d bytes, want %d",
			ErrKeyDerivation, len(secret), btcec.PrivKeyBytesLen)
	}
	var scalar btcec.ModNScalar
	if overflow := scalar.SetByteSlice(secret); overflow || scalar.IsZero() {
		return nil, nil, fmt.Errorf("%w: secret is not a valid scalar", ErrKeyDerivation)
	}

	priv, _ := btcec.PrivKeyFromBytes(secret)
	outputKey := txscript.ComputeTaprootKeyNoScript(priv.PubKey())
	script, err := txscript.PayToTaprootScript(outputKey)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrKeyDerivation, err)
	}
	return priv, script, nil
}

func keyID(script []byte) spkindex.KeyID {
	return spkindex.KeyID(hex.EncodeToString(script))
}
