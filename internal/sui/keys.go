package sui

import (
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/tyler-smith/go-bip39"
	"golang.org/x/crypto/blake2b"
)

const (
	// PrivateKeyHRP is the bech32 prefix of exported Sui private keys.
	PrivateKeyHRP = "suiprivkey"

	// DerivationPath is the default Sui ed25519 account path.
	DerivationPath = "m/44'/784'/0'/0'/0'"

	flagEd25519 byte = 0x00
)

var (
	ErrInvalidKey = errors.New("invalid private key")

	derivationIndexes = []uint32{44, 784, 0, 0, 0}
)

// Keypair is an ed25519 signing key with its derived Sui address.
type Keypair struct {
	priv    ed25519.PrivateKey
	address string
}

// NewKeypair builds a keypair from a 32-byte ed25519 seed.
func NewKeypair(seed []byte) (*Keypair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("%w: seed must be %d bytes, got %d", ErrInvalidKey, ed25519.SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return &Keypair{priv: priv, address: addressOf(priv.Public().(ed25519.PublicKey))}, nil
}

// ParseKey accepts any of the key encodings found in wallet files:
// a bech32 "suiprivkey1..." string, 0x-prefixed or bare hex, 44-char
// base64, or a BIP-39 mnemonic phrase.
func ParseKey(input string) (*Keypair, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidKey)
	}

	switch {
	case strings.HasPrefix(strings.ToLower(s), PrivateKeyHRP+"1"):
		return parseBech32(s)
	case strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X"):
		return parseHex(s[2:])
	case isHex(s) && (len(s) == 64 || len(s) == 128):
		return parseHex(s)
	case len(s) == 44 && !strings.ContainsAny(s, " \t"):
		return parseBase64(s)
	}
	return FromMnemonic(s)
}

func parseBech32(s string) (*Keypair, error) {
	hrp, data, err := bech32.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	if hrp != PrivateKeyHRP {
		return nil, fmt.Errorf("%w: unexpected prefix %q", ErrInvalidKey, hrp)
	}
	raw, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	if len(raw) != 1+ed25519.SeedSize {
		return nil, fmt.Errorf("%w: decoded %d bytes", ErrInvalidKey, len(raw))
	}
	if raw[0] != flagEd25519 {
		return nil, fmt.Errorf("%w: unsupported signature scheme 0x%02x", ErrInvalidKey, raw[0])
	}
	return NewKeypair(raw[1:])
}

func parseHex(s string) (*Keypair, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	// 64 bytes is seed||pubkey as produced by some exporters.
	if len(raw) == ed25519.PrivateKeySize {
		raw = raw[:ed25519.SeedSize]
	}
	return NewKeypair(raw)
}

func parseBase64(s string) (*Keypair, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	if len(raw) == 1+ed25519.SeedSize && raw[0] == flagEd25519 {
		raw = raw[1:]
	}
	return NewKeypair(raw)
}

// FromMnemonic derives the first account of a BIP-39 phrase.
func FromMnemonic(phrase string) (*Keypair, error) {
	words := strings.Fields(strings.ToLower(phrase))
	normalized := strings.Join(words, " ")
	if !bip39.IsMnemonicValid(normalized) {
		return nil, fmt.Errorf("%w: not a valid mnemonic or key encoding", ErrInvalidKey)
	}
	seed := bip39.NewSeed(normalized, "")
	key, _ := deriveSLIP10(seed, derivationIndexes)
	return NewKeypair(key)
}

// deriveSLIP10 walks a hardened-only ed25519 path (SLIP-0010).
func deriveSLIP10(seed []byte, path []uint32) (key, chainCode []byte) {
	mac := hmac.New(sha512.New, []byte("ed25519 seed"))
	mac.Write(seed)
	sum := mac.Sum(nil)
	key, chainCode = sum[:32], sum[32:]

	for _, idx := range path {
		var buf [1 + 32 + 4]byte
		copy(buf[1:33], key)
		binary.BigEndian.PutUint32(buf[33:], idx|0x80000000)

		mac = hmac.New(sha512.New, chainCode)
		mac.Write(buf[:])
		sum = mac.Sum(nil)
		key, chainCode = sum[:32], sum[32:]
	}
	return key, chainCode
}

// Address returns the 0x-prefixed Sui address.
func (k *Keypair) Address() string { return k.address }

// PublicKey returns the raw 32-byte public key.
func (k *Keypair) PublicKey() ed25519.PublicKey {
	return k.priv.Public().(ed25519.PublicKey)
}

// SignTransaction signs BCS transaction bytes under the TransactionData
// intent and returns the base64 serialized signature flag||sig||pubkey.
func (k *Keypair) SignTransaction(txBytes []byte) string {
	digest := TransactionDigest(txBytes)
	sig := ed25519.Sign(k.priv, digest[:])

	out := make([]byte, 0, 1+ed25519.SignatureSize+ed25519.PublicKeySize)
	out = append(out, flagEd25519)
	out = append(out, sig...)
	out = append(out, k.PublicKey()...)
	return base64.StdEncoding.EncodeToString(out)
}

// TransactionDigest is blake2b-256 over intent [0,0,0] followed by txBytes.
func TransactionDigest(txBytes []byte) [32]byte {
	msg := make([]byte, 0, 3+len(txBytes))
	msg = append(msg, 0, 0, 0)
	msg = append(msg, txBytes...)
	return blake2b.Sum256(msg)
}

func addressOf(pub ed25519.PublicKey) string {
	msg := make([]byte, 0, 1+len(pub))
	msg = append(msg, flagEd25519)
	msg = append(msg, pub...)
	sum := blake2b.Sum256(msg)
	return "0x" + hex.EncodeToString(sum[:])
}

func isHex(s string) bool {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
