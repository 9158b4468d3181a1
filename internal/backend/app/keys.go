package app

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/aussiebroadwan/modconsole/pkg/cryptox"
	"github.com/aussiebroadwan/modconsole/pkg/jwtx"
)

// LoadSigningKey returns the token signer and a verifier trusting it.
//
// With no key file the key is ephemeral and every issued token dies with the
// process. A configured file that does not exist yet is created (0600) with a
// fresh key so restarts keep sessions alive.
func LoadSigningKey(cfg Config, logger *slog.Logger) (*jwtx.EdDSASigner, jwtx.Verifier, error) {
	var signer *jwtx.EdDSASigner

	if cfg.SigningKeyFile == "" {
		_, key, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, nil, fmt.Errorf("generate signing key: %w", err)
		}
		signer = jwtx.NewSignerFromKey("", key)
		logger.Warn("using ephemeral signing key, tokens will not survive a restart")
	} else {
		pemKey, err := os.ReadFile(cfg.SigningKeyFile)
		if errors.Is(err, fs.ErrNotExist) {
			pemKey, err = cryptox.GenerateEd25519Key()
			if err != nil {
				return nil, nil, err
			}
			if err := os.WriteFile(cfg.SigningKeyFile, pemKey, 0o600); err != nil {
				return nil, nil, fmt.Errorf("write signing key: %w", err)
			}
			logger.Info("generated signing key", "path", cfg.SigningKeyFile)
		} else if err != nil {
			return nil, nil, fmt.Errorf("read signing key: %w", err)
		}

		signer, err = jwtx.NewSignerEdDSA("", pemKey)
		if err != nil {
			return nil, nil, err
		}
	}

	keys := jwtx.NewKeySet()
	keys.AddSigner(signer)
	logger.Info("signing key loaded", "kid", signer.KID())

	return signer, jwtx.NewVerifierEdDSA(keys, cfg.Issuer, nil, 0), nil
}
