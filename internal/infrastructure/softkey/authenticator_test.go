package softkey

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"math/big"
	"path/filepath"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/uats/internal/domain/models"
	"github.com/turtacn/uats/internal/domain/service"
)

func newAuthenticator(t *testing.T, store *Store) *Authenticator {
	t.Helper()
	a, err := New(Options{Origin: "http://localhost:3000", Store: store})
	require.NoError(t, err)
	return a
}

func creationOptions() *models.CredentialCreationOptions {
	return &models.CredentialCreationOptions{
		Challenge:        models.ByteArray{1, 2, 3, 4},
		RP:               models.RelyingParty{Name: "UATS"},
		User:             models.UserEntity{ID: models.ByteArray("user_2abc"), Name: "ada@example.com", DisplayName: "Ada"},
		PubKeyCredParams: []models.CredentialParameter{{Type: "public-key", Alg: -7}},
	}
}

// registered decodes a created credential back into its credential id and public key.
func registered(t *testing.T, cred *models.PublicKeyCredential) ([]byte, *ecdsa.PublicKey) {
	t.Helper()
	var att attestationObject
	require.NoError(t, cbor.Unmarshal(cred.Response.AttestationObject, &att))
	assert.Equal(t, "none", att.Fmt)
	assert.Empty(t, att.AttStmt)

	data := att.AuthData
	rpHash := sha256.Sum256([]byte("localhost"))
	assert.Equal(t, rpHash[:], data[:32])
	assert.Equal(t, flagUserPresent|flagUserVerified|flagAttested, data[32])
	assert.Equal(t, uint32(0), binary.BigEndian.Uint32(data[33:37]))

	idLen := int(binary.BigEndian.Uint16(data[53:55]))
	credID := data[55 : 55+idLen]

	var key coseKey
	require.NoError(t, cbor.Unmarshal(data[55+idLen:], &key))
	assert.Equal(t, coseKeyTypeEC2, key.Kty)
	assert.Equal(t, coseAlgES256, key.Alg)
	assert.Equal(t, coseCurveP256, key.Crv)

	return credID, &ecdsa.PublicKey{
		Curve: elliptic.P256(),
		X:     new(big.Int).SetBytes(key.X),
		Y:     new(big.Int).SetBytes(key.Y),
	}
}

func TestAuthenticator_CreateThenGet(t *testing.T) {
	a := newAuthenticator(t, nil)
	ctx := context.Background()

	cred, err := a.Create(ctx, creationOptions())
	require.NoError(t, err)
	assert.Equal(t, models.PublicKeyCredentialType, cred.Type)
	assert.Equal(t, base64.RawURLEncoding.EncodeToString(cred.RawID), cred.ID)

	var cd clientData
	require.NoError(t, json.Unmarshal(cred.Response.ClientDataJSON, &cd))
	assert.Equal(t, "webauthn.create", cd.Type)
	assert.Equal(t, "AQIDBA", cd.Challenge)
	assert.Equal(t, "http://localhost:3000", cd.Origin)

	credID, pub := registered(t, cred)
	assert.Equal(t, []byte(cred.RawID), credID)

	for want := uint32(1); want <= 2; want++ {
		assertion, err := a.Get(ctx, &models.CredentialRequestOptions{
			Challenge:        models.ByteArray{9, 9},
			RPID:             "localhost",
			AllowCredentials: []models.CredentialDescriptor{{Type: "public-key", ID: models.ByteArray(credID)}},
		})
		require.NoError(t, err)
		assert.Equal(t, models.ByteArray("user_2abc"), assertion.Response.UserHandle)

		authData := assertion.Response.AuthenticatorData
		assert.Equal(t, want, binary.BigEndian.Uint32(authData[33:37]))

		cdHash := sha256.Sum256(assertion.Response.ClientDataJSON)
		digest := sha256.Sum256(append(append([]byte(nil), authData...), cdHash[:]...))
		assert.True(t, ecdsa.VerifyASN1(pub, digest[:], assertion.Response.Signature))
	}
}

func TestAuthenticator_GetWithoutCredentialIsNotAllowed(t *testing.T) {
	a := newAuthenticator(t, nil)

	_, err := a.Get(context.Background(), &models.CredentialRequestOptions{Challenge: models.ByteArray{1}})
	require.Error(t, err)
	assert.ErrorIs(t, err, service.ErrCeremonyNotAllowed)
	assert.Equal(t, service.CeremonyCancelled, service.ClassifyCeremonyError("get", err).Kind)
}

func TestAuthenticator_ExcludedCredential(t *testing.T) {
	a := newAuthenticator(t, nil)
	cred, err := a.Create(context.Background(), creationOptions())
	require.NoError(t, err)

	opts := creationOptions()
	opts.ExcludeCredentials = []models.CredentialDescriptor{{Type: "public-key", ID: cred.RawID}}
	_, err = a.Create(context.Background(), opts)
	require.Error(t, err)
	assert.ErrorIs(t, err, service.ErrCeremonyInvalidState)
	assert.NotErrorIs(t, err, service.ErrCeremonyNotAllowed)
	assert.Equal(t, service.CeremonyOther, service.ClassifyCeremonyError("create", err).Kind)
}

func TestAuthenticator_UnsupportedAlgorithm(t *testing.T) {
	a := newAuthenticator(t, nil)
	opts := creationOptions()
	opts.PubKeyCredParams = []models.CredentialParameter{{Type: "public-key", Alg: -257}}

	_, err := a.Create(context.Background(), opts)
	require.Error(t, err)
	assert.Equal(t, service.CeremonyUnsupported, service.ClassifyCeremonyError("create", err).Kind)
}

func TestAuthenticator_PromptDismissed(t *testing.T) {
	a, err := New(Options{
		Origin: "http://localhost:3000",
		Approve: func(ctx context.Context, op, rpID string) error {
			assert.Equal(t, "create", op)
			assert.Equal(t, "localhost", rpID)
			return service.ErrCeremonyNotAllowed
		},
	})
	require.NoError(t, err)

	_, err = a.Create(context.Background(), creationOptions())
	assert.ErrorIs(t, err, service.ErrCeremonyNotAllowed)
	assert.Equal(t, 0, a.store.Len())
}

func TestAuthenticator_CancelledContext(t *testing.T) {
	a := newAuthenticator(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Create(ctx, creationOptions())
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestAuthenticator_RequiresChallengeAndOrigin(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)

	a := newAuthenticator(t, nil)
	_, err = a.Create(context.Background(), &models.CredentialCreationOptions{})
	assert.Error(t, err)
	_, err = a.Get(context.Background(), nil)
	assert.Error(t, err)
}

func TestStore_PersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys", "softkey.json")
	store, err := OpenStore(path)
	require.NoError(t, err)

	cred, err := newAuthenticator(t, store).Create(context.Background(), creationOptions())
	require.NoError(t, err)
	credID, pub := registered(t, cred)

	reopened, err := OpenStore(path)
	require.NoError(t, err)
	assert.Equal(t, 1, reopened.Len())

	assertion, err := newAuthenticator(t, reopened).Get(context.Background(), &models.CredentialRequestOptions{
		Challenge:        models.ByteArray{7},
		AllowCredentials: []models.CredentialDescriptor{{ID: models.ByteArray(credID)}},
	})
	require.NoError(t, err)
	cdHash := sha256.Sum256(assertion.Response.ClientDataJSON)
	digest := sha256.Sum256(append(append([]byte(nil), assertion.Response.AuthenticatorData...), cdHash[:]...))
	assert.True(t, ecdsa.VerifyASN1(pub, digest[:], assertion.Response.Signature))
}
