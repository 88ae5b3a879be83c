// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package password stores credentials as argon2id hashes in the PHC string
// format: $argon2id$v=19$m=65536,t=3,p=1$<salt>$<key>.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// ErrMalformedHash is returned when a stored hash cannot be parsed. It is
// distinct from a wrong password, which is a plain false.
var ErrMalformedHash = errors.New("password: malformed hash")

const variant = "argon2id"

// Ceilings for parameters read back from a stored hash.
const (
	maxMemory      = 1 << 20 // KiB, 1 GiB
	maxIterations  = 64
	maxParallelism = 255
	minSaltLength  = 8
	maxSaltLength  = 64
	minKeyLength   = 16
	maxKeyLength   = 128
)

// Params are the argon2id cost parameters.
type Params struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultParams are fixed for every stored credential. Changing them only
// affects new hashes; Verify reads the parameters from the stored string.
var DefaultParams = Params{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// Hasher hashes with a fixed set of parameters.
type Hasher struct {
	params Params
}

// NewHasher returns a Hasher using p.
func NewHasher(p Params) *Hasher {
	return &Hasher{params: p}
}

var defaultHasher = NewHasher(DefaultParams)

// Hash hashes password with DefaultParams and a fresh random salt.
func Hash(password string) (string, error) {
	return defaultHasher.Hash(password)
}

// Verify reports whether candidate matches the stored hash.
func Verify(hashed, candidate string) (bool, error) {
	return defaultHasher.Verify(hashed, candidate)
}

// NeedsRehash reports whether hashed was made with other than DefaultParams.
func NeedsRehash(hashed string) (bool, error) {
	return defaultHasher.NeedsRehash(hashed)
}

// Hash hashes password with a fresh random salt. It fails only if the system
// random source fails.
func (h *Hasher) Hash(password string) (string, error) {
	salt := make([]byte, h.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("password: read salt: %w", err)
	}
	key := argon2.IDKey([]byte(password), salt, h.params.Iterations, h.params.Memory, h.params.Parallelism, h.params.KeyLength)

	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		variant,
		argon2.Version,
		h.params.Memory,
		h.params.Iterations,
		h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify recomputes the key with the parameters and salt embedded in hashed
// and compares in constant time. A hash from another variant or argon2
// version never matches.
func (h *Hasher) Verify(hashed, candidate string) (bool, error) {
	d, err := decode(hashed)
	if err != nil {
		return false, err
	}
	if d.variant != variant || d.version != argon2.Version {
		return false, nil
	}
	key := argon2.IDKey([]byte(candidate), d.salt, d.params.Iterations, d.params.Memory, d.params.Parallelism, uint32(len(d.key)))
	return subtle.ConstantTimeCompare(key, d.key) == 1, nil
}

// NeedsRehash reports whether hashed was produced with parameters other than
// the Hasher's.
func (h *Hasher) NeedsRehash(hashed string) (bool, error) {
	d, err := decode(hashed)
	if err != nil {
		return false, err
	}
	p := d.params
	return d.variant != variant ||
		d.version != argon2.Version ||
		p.Memory != h.params.Memory ||
		p.Iterations != h.params.Iterations ||
		p.Parallelism != h.params.Parallelism ||
		uint32(len(d.salt)) != h.params.SaltLength ||
		uint32(len(d.key)) != h.params.KeyLength, nil
}

type decoded struct {
	variant string
	version int
	params  Params
	salt    []byte
	key     []byte
}

func decode(hashed string) (*decoded, error) {
	parts := strings.Split(hashed, "$")
	// "", variant, v=, params, salt, key
	if len(parts) != 6 || parts[0] != "" {
		return nil, ErrMalformedHash
	}

	d := &decoded{variant: parts[1]}
	if _, err := fmt.Sscanf(parts[2], "v=%d", &d.version); err != nil {
		return nil, fmt.Errorf("%w: version: %v", ErrMalformedHash, err)
	}

	var p Params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Iterations, &p.Parallelism); err != nil {
		return nil, fmt.Errorf("%w: params: %v", ErrMalformedHash, err)
	}
	if p.Memory == 0 || p.Iterations == 0 || p.Parallelism == 0 {
		return nil, fmt.Errorf("%w: zero cost parameter", ErrMalformedHash)
	}
	if p.Memory > maxMemory || p.Iterations > maxIterations || p.Parallelism > maxParallelism {
		return nil, fmt.Errorf("%w: cost parameter above limit", ErrMalformedHash)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) < minSaltLength || len(salt) > maxSaltLength {
		return nil, fmt.Errorf("%w: salt", ErrMalformedHash)
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) < minKeyLength || len(key) > maxKeyLength {
		return nil, fmt.Errorf("%w: key", ErrMalformedHash)
	}

	d.params = p
	d.salt = salt
	d.key = key
	return d, nil
}
