package cashubind

import (
	"github.com/tyler-smith/go-bip39"
)

// GenerateMnemonic returns a fresh 12-word BIP-39 phrase suitable for the
// wallet constructors.
func GenerateMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(128)
	if err != nil {
		return "", newError(KindInternal, "failed to generate mnemonic: %v", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", newError(KindInternal, "failed to generate mnemonic: %v", err)
	}
	return mnemonic, nil
}

// mnemonicToSeed expands a mnemonic phrase into the 64-byte seed the engine
// derives its keys from. The phrase is checksum-validated; arbitrary text is
// rejected rather than silently hashed.
func mnemonicToSeed(words string) ([64]byte, error) {
	var out [64]byte
	seed, err := bip39.NewSeedWithErrorChecking(words, "")
	if err != nil {
		return out, newError(KindInvalidInput, "invalid mnemonic: %v", err)
	}
	copy(out[:], seed)
	return out, nil
}
