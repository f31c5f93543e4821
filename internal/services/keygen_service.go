package services

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	"github.com/nbutton23/zxcvbn-go"
	"github.com/sirupsen/logrus"

	"github.com/deploymenttheory/go-hushfs/internal/codec"
	"github.com/deploymenttheory/go-hushfs/internal/crypto"
	"github.com/deploymenttheory/go-hushfs/internal/helpers"
	"github.com/deploymenttheory/go-hushfs/internal/interfaces"
	"github.com/deploymenttheory/go-hushfs/internal/types"
)

// PasswordPrompt is shown when a private key password is requested
const PasswordPrompt = "Password: "

// KeyFiles names the files written for one key pair
type KeyFiles struct {
	Private string `json:"private" yaml:"private"`
	Public  string `json:"public" yaml:"public"`
	Salt    string `json:"salt" yaml:"salt"`
}

// KeyFilesFor returns the file set belonging to a private key path
func KeyFilesFor(privatePath string) KeyFiles {
	return KeyFiles{
		Private: privatePath,
		Public:  privatePath + ".pub",
		Salt:    privatePath + ".salt",
	}
}

func (f KeyFiles) all() []string {
	return []string{f.Private, f.Public, f.Salt}
}

// KeygenResult describes a generated key pair
type KeygenResult struct {
	Files         KeyFiles `json:"files" yaml:"files"`
	Fingerprint   string   `json:"fingerprint" yaml:"fingerprint"`
	PasswordScore int      `json:"password_score" yaml:"password_score"`
	WeakPassword  bool     `json:"weak_password" yaml:"weak_password"`
}

// VerifyResult describes a private key check
type VerifyResult struct {
	Files       KeyFiles `json:"files" yaml:"files"`
	Fingerprint string   `json:"fingerprint" yaml:"fingerprint"`
	Matches     bool     `json:"matches" yaml:"matches"`
}

// KeygenService generates, recovers and verifies password protected key pairs
type KeygenService struct {
	prompter interfaces.PasswordPrompter
	params   crypto.KDFParams
	minScore int
	log      logrus.FieldLogger
}

// NewKeygenService creates a KeygenService. Passwords scoring below minScore
// on the zxcvbn 0-4 scale are accepted with a warning.
func NewKeygenService(prompter interfaces.PasswordPrompter, params crypto.KDFParams, minScore int, logger logrus.FieldLogger) *KeygenService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &KeygenService{
		prompter: prompter,
		params:   params,
		minScore: minScore,
		log:      logger,
	}
}

// Generate creates a key pair protected by a confirmed password and writes
// the private key, public key and salt files. Nothing is written unless the
// password is confirmed and every step before the writes succeeds.
func (s *KeygenService) Generate(privatePath string) (*KeygenResult, error) {
	files := KeyFilesFor(privatePath)
	for _, path := range files.all() {
		if helpers.FileExists(path) {
			return nil, fmt.Errorf("keyfile %s already exists: %w", path, os.ErrExist)
		}
	}

	password, err := s.prompter.Ask(PasswordPrompt, true)
	if err != nil {
		return nil, err
	}
	defer password.Destroy()

	score := passwordScore(password.Bytes())
	weak := score < s.minScore
	if weak {
		s.log.WithField("score", score).Warn("Password is weak")
	}

	key := crypto.NewSecretKey(s.params)
	defer key.Destroy()
	s.log.Debug("Deriving key")
	if err := key.GenerateKey(password.Bytes()); err != nil {
		return nil, err
	}

	s.log.Info("Generating key pair")
	pair, err := crypto.GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	defer pair.Destroy()

	cipher, err := crypto.NewSymmetric(key)
	if err != nil {
		return nil, err
	}
	sealed, err := cipher.Encipher(pair.PrivateKey())
	if err != nil {
		return nil, err
	}
	record, err := crypto.EncodeKDFRecord(key.Params(), key.Salt())
	if err != nil {
		return nil, err
	}

	blocks := []struct {
		path string
		text string
	}{
		{path: files.Private, text: codec.EncodeBlock(sealed.Bytes(), codec.LabelPrivateKey)},
		{path: files.Public, text: codec.EncodeBlock(pair.PublicKey(), codec.LabelPublicKey)},
		{path: files.Salt, text: codec.EncodeBlock(record, codec.LabelSalt)},
	}

	var written []string
	for _, b := range blocks {
		if err := helpers.CreateAndWrite(b.path, []byte(b.text), helpers.KeyFileMode); err != nil {
			for _, path := range written {
				os.Remove(path)
			}
			return nil, err
		}
		written = append(written, b.path)
	}

	result := &KeygenResult{
		Files:         files,
		Fingerprint:   Fingerprint(pair.PublicKey()),
		PasswordScore: score,
		WeakPassword:  weak,
	}
	s.log.WithFields(logrus.Fields{
		"private":     files.Private,
		"public":      files.Public,
		"fingerprint": result.Fingerprint,
	}).Info("Wrote key pair")
	return result, nil
}

// Recover decrypts the private key at privatePath with password and returns
// the full key pair. The key is derived with the parameters stored in the
// salt file; a bare salt is derived with the service parameters. A wrong
// password is an authentication error.
func (s *KeygenService) Recover(privatePath string, password *crypto.SecureBuffer) (*crypto.KeyPair, error) {
	files := KeyFilesFor(privatePath)

	sealed, err := readBlock(files.Private, codec.LabelPrivateKey)
	if err != nil {
		return nil, err
	}
	record, err := readBlock(files.Salt, codec.LabelSalt)
	if err != nil {
		return nil, err
	}
	params, salt, err := crypto.ParseKDFRecord(record, s.params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", files.Salt, err)
	}

	ct, err := crypto.ParseCipherText(sealed)
	if err != nil {
		return nil, err
	}

	key := crypto.NewSecretKey(params)
	defer key.Destroy()
	if err := key.SetSalt(salt); err != nil {
		return nil, err
	}
	if err := key.GenerateKey(password.Bytes()); err != nil {
		return nil, err
	}

	cipher, err := crypto.NewSymmetric(key)
	if err != nil {
		return nil, err
	}
	private, err := cipher.Decipher(ct)
	if err != nil {
		return nil, err
	}

	pair, err := crypto.KeyPairFromPrivate(private)
	if err != nil {
		private.Destroy()
		return nil, err
	}
	return pair, nil
}

// Verify asks for the password of privatePath and checks that the recovered
// private key belongs to the stored public key.
func (s *KeygenService) Verify(privatePath string) (*VerifyResult, error) {
	files := KeyFilesFor(privatePath)

	public, err := LoadPublicKey(files.Public)
	if err != nil {
		return nil, err
	}

	password, err := s.prompter.Ask(PasswordPrompt, false)
	if err != nil {
		return nil, err
	}
	defer password.Destroy()

	pair, err := s.Recover(privatePath, password)
	if err != nil {
		return nil, err
	}
	defer pair.Destroy()

	result := &VerifyResult{
		Files:       files,
		Fingerprint: Fingerprint(public),
		Matches:     pair.Matches(public),
	}
	if !result.Matches {
		s.log.WithField("public", files.Public).Warn("Private key does not match public key")
	}
	return result, nil
}

// LoadPublicKey reads and decodes a public key file
func LoadPublicKey(path string) ([]byte, error) {
	public, err := readBlock(path, codec.LabelPublicKey)
	if err != nil {
		return nil, err
	}
	if len(public) != crypto.PublicKeySize {
		return nil, types.NewDecodeError("load public key", fmt.Sprintf("public key must be %d bytes, got %d", crypto.PublicKeySize, len(public)), nil)
	}
	return public, nil
}

// Fingerprint returns a short hex digest identifying a public key
func Fingerprint(public []byte) string {
	sum := sha256.Sum256(public)
	return hex.EncodeToString(sum[:8])
}

func readBlock(path, label string) ([]byte, error) {
	text, err := helpers.ReadText(path)
	if err != nil {
		return nil, err
	}
	data, err := codec.DecodeBlock(text, label)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return data, nil
}

// passwordScore rates a password on the zxcvbn 0-4 scale. zxcvbn needs a
// string, so the password is copied to ordinary heap memory that cannot be
// wiped; the copy is unreachable once this returns.
func passwordScore(password []byte) int {
	return zxcvbn.PasswordStrength(string(password), nil).Score
}

// IsWrongPassword reports whether err means the password did not open the key
func IsWrongPassword(err error) bool {
	return errors.Is(err, types.ErrAuthentication)
}
