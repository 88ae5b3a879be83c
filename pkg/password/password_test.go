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

package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cheap parameters keep the suite fast; DefaultParams is covered once below
var testHasher = NewHasher(Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})

func TestHash_DefaultFormat(t *testing.T) {
	h, err := Hash("password123")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(h, "$argon2id$v=19$m=65536,t=3,p=1$"), h)

	ok, err := Verify(h, "password123")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHasher_RoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		password  string
		candidate string
		want      bool
	}{
		{"match", "password123", "password123", true},
		{"mismatch", "password123", "password124", false},
		{"empty password", "", "", true},
		{"unicode", "pässwörd-密码", "pässwörd-密码", true},
		{"case sensitive", "Secret", "secret", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := testHasher.Hash(tt.password)
			require.NoError(t, err)
			ok, err := testHasher.Verify(h, tt.candidate)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestHasher_Salted(t *testing.T) {
	a, err := testHasher.Hash("same")
	require.NoError(t, err)
	b, err := testHasher.Hash("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestVerify_Malformed(t *testing.T) {
	for _, h := range []string{
		"",
		"plaintext",
		"$argon2id$v=19$m=65536,t=3,p=1$onlysalt",
		"$argon2id$vee$m=65536,t=3,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=0,t=3,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=65536,t=3,p=1$!!!$a2V5",
	} {
		ok, err := testHasher.Verify(h, "x")
		assert.False(t, ok, h)
		assert.ErrorIs(t, err, ErrMalformedHash, h)
	}
}

func TestVerify_RejectsExcessiveParameters(t *testing.T) {
	h, err := testHasher.Hash("password123")
	require.NoError(t, err)
	parts := strings.Split(h, "$")
	with := func(params, salt, key string) string {
		return strings.Join([]string{"", parts[1], parts[2], params, salt, key}, "$")
	}
	longSalt := strings.Repeat("c2FsdHNhbHQ", 10)

	for name, hashed := range map[string]string{
		"memory":      with("m=4294967295,t=1,p=1", parts[4], parts[5]),
		"just over":   with("m=1048577,t=1,p=1", parts[4], parts[5]),
		"iterations":  with("m=1024,t=100000,p=1", parts[4], parts[5]),
		"parallelism": with("m=1024,t=1,p=300", parts[4], parts[5]),
		"short salt":  with(parts[3], "c2FsdA", parts[5]),
		"long salt":   with(parts[3], longSalt, parts[5]),
		"short key":   with(parts[3], parts[4], "a2V5"),
	} {
		ok, err := testHasher.Verify(hashed, "password123")
		assert.False(t, ok, name)
		assert.ErrorIs(t, err, ErrMalformedHash, name)
	}

	// the ceiling itself is accepted; the wrong key just fails to match
	ok, err := testHasher.Verify(with("m=1024,t=64,p=1", parts[4], parts[5]), "password123")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerify_OtherVersionOrVariant(t *testing.T) {
	h, err := testHasher.Hash("password123")
	require.NoError(t, err)

	older := strings.Replace(h, "$v=19$", "$v=16$", 1)
	ok, err := testHasher.Verify(older, "password123")
	require.NoError(t, err)
	assert.False(t, ok)

	argon2i := strings.Replace(h, "$argon2id$", "$argon2i$", 1)
	ok, err = testHasher.Verify(argon2i, "password123")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHasher_NeedsRehash(t *testing.T) {
	h, err := testHasher.Hash("pw")
	require.NoError(t, err)

	stale, err := testHasher.NeedsRehash(h)
	require.NoError(t, err)
	assert.False(t, stale)

	stale, err = NewHasher(DefaultParams).NeedsRehash(h)
	require.NoError(t, err)
	assert.True(t, stale)
}
