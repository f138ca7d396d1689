package secrets

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
)

// Layout of an encoded password, before base64:
//
//	salt(8) | padLen(1) | AES-128-CBC ciphertext | random padding(padLen)
//
// Key and IV are the two halves of SHA-256(password || salt).
const (
	saltSize  = 8
	chunkSize = 16
	keySize   = 16
)

var errMalformedCiphertext = errors.New("malformed ciphertext")

// Encrypt encrypts plain with password and returns the base64 body of a token
// (without braces). The output is compatible with Maven's password cipher.
func Encrypt(plain, password string) (string, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	block, iv, err := newBlock(password, salt)
	if err != nil {
		return "", err
	}
	padded := pkcs5Pad([]byte(plain), aes.BlockSize)
	encrypted := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(encrypted, padded)

	padLen := chunkSize - ((saltSize + len(encrypted) + 1) % chunkSize)
	total := saltSize + len(encrypted) + padLen + 1
	out := make([]byte, total)
	if _, err := rand.Read(out); err != nil {
		return "", fmt.Errorf("generating padding: %w", err)
	}
	copy(out, salt)
	out[saltSize] = byte(padLen)
	copy(out[saltSize+1:], encrypted)

	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt reverses Encrypt.
func Decrypt(encoded, password string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decoding ciphertext: %w", err)
	}
	if len(data) < saltSize+1 {
		return "", errMalformedCiphertext
	}

	padLen := int(data[saltSize])
	end := len(data) - padLen
	if end <= saltSize+1 {
		return "", errMalformedCiphertext
	}
	encrypted := data[saltSize+1 : end]
	if len(encrypted)%aes.BlockSize != 0 {
		return "", errMalformedCiphertext
	}

	block, iv, err := newBlock(password, data[:saltSize])
	if err != nil {
		return "", err
	}
	plain := make([]byte, len(encrypted))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, encrypted)

	plain, err = pkcs5Unpad(plain, aes.BlockSize)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

func newBlock(password string, salt []byte) (cipher.Block, []byte, error) {
	keyAndIV := deriveKeyAndIV([]byte(password), salt)
	block, err := aes.NewCipher(keyAndIV[:keySize])
	if err != nil {
		return nil, nil, fmt.Errorf("creating cipher: %w", err)
	}
	return block, keyAndIV[keySize:], nil
}

// deriveKeyAndIV chains SHA-256 digests of password||salt until 2*keySize
// bytes are available.
func deriveKeyAndIV(password, salt []byte) []byte {
	out := make([]byte, 0, 2*keySize)
	var prev []byte
	for len(out) < 2*keySize {
		h := sha256.New()
		h.Write(prev)
		h.Write(password)
		h.Write(salt[:saltSize])
		prev = h.Sum(nil)
		need := 2*keySize - len(out)
		if len(prev) > need {
			out = append(out, prev[:need]...)
		} else {
			out = append(out, prev...)
		}
	}
	return out
}

func pkcs5Pad(b []byte, size int) []byte {
	n := size - len(b)%size
	return append(b, bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs5Unpad(b []byte, size int) ([]byte, error) {
	if len(b) == 0 || len(b)%size != 0 {
		return nil, errors.New("invalid padding")
	}
	n := int(b[len(b)-1])
	if n == 0 || n > size || n > len(b) {
		return nil, errors.New("invalid padding")
	}
	for _, c := range b[len(b)-n:] {
		if int(c) != n {
			return nil, errors.New("invalid padding")
		}
	}
	return b[:len(b)-n], nil
}
