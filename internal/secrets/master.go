package secrets

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// SecurityPassphrase is the fixed passphrase the master password is encrypted with.
const SecurityPassphrase = "settings.security"

// ErrNoMaster is returned when a token must be decrypted but no master
// password is configured.
var ErrNoMaster = errors.New("no master password configured")

// MasterDispatcher decrypts {...} tokens with the master password. The master
// password itself is stored encrypted with SecurityPassphrase and is decrypted
// once, on first use.
type MasterDispatcher struct {
	encryptedMaster string

	once   sync.Once
	master string
	err    error
}

// NewMasterDispatcher creates a dispatcher for the given stored master
// password. A master without braces is used as plaintext.
func NewMasterDispatcher(encryptedMaster string) *MasterDispatcher {
	return &MasterDispatcher{encryptedMaster: encryptedMaster}
}

// Decrypt decrypts one token with the master password.
func (d *MasterDispatcher) Decrypt(_ context.Context, token string) (string, error) {
	body, ok := unwrap(token)
	if !ok {
		return "", ErrNotEncrypted
	}
	master, err := d.masterPassword()
	if err != nil {
		return "", err
	}
	plain, err := Decrypt(body, master)
	if err != nil {
		return "", fmt.Errorf("decrypting token: %w", err)
	}
	return plain, nil
}

func (d *MasterDispatcher) masterPassword() (string, error) {
	d.once.Do(func() {
		if d.encryptedMaster == "" {
			d.err = ErrNoMaster
			return
		}
		body, ok := unwrap(d.encryptedMaster)
		if !ok {
			d.master = d.encryptedMaster
			return
		}
		d.master, d.err = Decrypt(body, SecurityPassphrase)
		if d.err != nil {
			d.err = fmt.Errorf("decrypting master password: %w", d.err)
		}
	})
	return d.master, d.err
}

// EncryptMaster encrypts a master password for storage in the security file.
func EncryptMaster(master string) (string, error) {
	body, err := Encrypt(master, SecurityPassphrase)
	if err != nil {
		return "", err
	}
	return "{" + body + "}", nil
}

// EncryptWithMaster encrypts a server password with the (plaintext) master password.
func EncryptWithMaster(plain, master string) (string, error) {
	body, err := Encrypt(plain, master)
	if err != nil {
		return "", err
	}
	return "{" + body + "}", nil
}

// Encrypt encrypts a server password with the dispatcher's master password.
func (d *MasterDispatcher) Encrypt(plain string) (string, error) {
	master, err := d.masterPassword()
	if err != nil {
		return "", err
	}
	return EncryptWithMaster(plain, master)
}
