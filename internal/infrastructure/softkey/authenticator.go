// Package softkey implements a software platform authenticator.
// It mints ES256 credentials with "none" attestation and signs assertions over them,
// standing in for a hardware security key in development and tests.
package softkey

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net/url"

	"github.com/fxamacker/cbor/v2"

	"github.com/turtacn/uats/internal/domain/models"
	"github.com/turtacn/uats/internal/domain/service"
	"github.com/turtacn/uats/pkg/logger"
)

// COSE identifiers of the only key type the authenticator mints.
const (
	coseKeyTypeEC2  = 2
	coseAlgES256    = -7
	coseCurveP256   = 1
	credentialIDLen = 32
)

// Authenticator data flags.
const (
	flagUserPresent  byte = 0x01
	flagUserVerified byte = 0x04
	flagAttested     byte = 0x40
)

// ApproveFunc plays the user at the authenticator prompt. A non-nil error dismisses the prompt.
type ApproveFunc func(ctx context.Context, op string, rpID string) error

// Options configures an Authenticator.
type Options struct {
	// Origin is reported in client data and supplies the RP id when the options carry none.
	Origin  string
	Store   *Store
	Approve ApproveFunc
	Rand    io.Reader
	Logger  logger.Logger
}

// Authenticator is a software WebAuthn authenticator.
// Authenticator 是软件实现的 WebAuthn 认证器。
type Authenticator struct {
	origin  string
	store   *Store
	approve ApproveFunc
	rand    io.Reader
	log     logger.Logger
	encMode cbor.EncMode
}

type coseKey struct {
	Kty int    `cbor:"1,keyasint"`
	Alg int    `cbor:"3,keyasint"`
	Crv int    `cbor:"-1,keyasint"`
	X   []byte `cbor:"-2,keyasint"`
	Y   []byte `cbor:"-3,keyasint"`
}

type attestationObject struct {
	Fmt      string                 `cbor:"fmt"`
	AttStmt  map[string]interface{} `cbor:"attStmt"`
	AuthData []byte                 `cbor:"authData"`
}

type clientData struct {
	Type        string `json:"type"`
	Challenge   string `json:"challenge"`
	Origin      string `json:"origin"`
	CrossOrigin bool   `json:"crossOrigin"`
}

// New creates an Authenticator.
func New(opts Options) (*Authenticator, error) {
	if opts.Origin == "" {
		return nil, fmt.Errorf("softkey: origin is required")
	}
	if _, err := url.Parse(opts.Origin); err != nil {
		return nil, fmt.Errorf("softkey: invalid origin: %w", err)
	}
	if opts.Store == nil {
		opts.Store = NewMemoryStore()
	}
	if opts.Rand == nil {
		opts.Rand = rand.Reader
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNoopLogger()
	}
	em, err := cbor.CTAP2EncOptions().EncMode()
	if err != nil {
		return nil, fmt.Errorf("softkey: cbor encoder: %w", err)
	}
	return &Authenticator{
		origin:  opts.Origin,
		store:   opts.Store,
		approve: opts.Approve,
		rand:    opts.Rand,
		log:     opts.Logger.WithComponent("softkey"),
		encMode: em,
	}, nil
}

// Create implements service.Authenticator.
func (a *Authenticator) Create(ctx context.Context, opts *models.CredentialCreationOptions) (*models.PublicKeyCredential, error) {
	if opts == nil || len(opts.Challenge) == 0 {
		return nil, fmt.Errorf("softkey: creation options carry no challenge")
	}
	if !supportsES256(opts.PubKeyCredParams) {
		return nil, service.ErrCeremonyNotSupported
	}

	rpID := a.rpID(opts.RP.ID)
	excluded := make([][]byte, 0, len(opts.ExcludeCredentials))
	for _, d := range opts.ExcludeCredentials {
		excluded = append(excluded, d.ID)
	}
	if len(excluded) > 0 && a.store.find(rpID, excluded) != nil {
		return nil, service.ErrCeremonyInvalidState
	}
	if err := a.prompt(ctx, "create", rpID); err != nil {
		return nil, err
	}

	key, err := ecdsa.GenerateKey(elliptic.P256(), a.rand)
	if err != nil {
		return nil, fmt.Errorf("softkey: generate key: %w", err)
	}
	credID := make([]byte, credentialIDLen)
	if _, err := io.ReadFull(a.rand, credID); err != nil {
		return nil, fmt.Errorf("softkey: credential id: %w", err)
	}

	pubKey, err := a.encodePublicKey(key)
	if err != nil {
		return nil, err
	}
	authData := a.authData(rpID, flagUserPresent|flagUserVerified|flagAttested, 0)
	authData = append(authData, make([]byte, 16)...) // AAGUID
	authData = binary.BigEndian.AppendUint16(authData, uint16(len(credID)))
	authData = append(authData, credID...)
	authData = append(authData, pubKey...)

	attObj, err := a.encMode.Marshal(attestationObject{
		Fmt:      "none",
		AttStmt:  map[string]interface{}{},
		AuthData: authData,
	})
	if err != nil {
		return nil, fmt.Errorf("softkey: encode attestation: %w", err)
	}
	cdata, err := a.clientData("webauthn.create", opts.Challenge)
	if err != nil {
		return nil, err
	}

	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("softkey: encode key: %w", err)
	}
	if err := a.store.add(&credential{
		ID:         credID,
		RPID:       rpID,
		UserHandle: append([]byte(nil), opts.User.ID...),
		UserName:   opts.User.Name,
		PrivateKey: der,
		key:        key,
	}); err != nil {
		return nil, fmt.Errorf("softkey: persist credential: %w", err)
	}

	a.log.Info(ctx, "Credential created", logger.String("rp_id", rpID), logger.String("user", opts.User.Name))
	return &models.PublicKeyCredential{
		ID:    base64.RawURLEncoding.EncodeToString(credID),
		RawID: credID,
		Response: models.AttestationResponse{
			AttestationObject: attObj,
			ClientDataJSON:    cdata,
		},
		Type: models.PublicKeyCredentialType,
	}, nil
}

// Get implements service.Authenticator.
func (a *Authenticator) Get(ctx context.Context, opts *models.CredentialRequestOptions) (*models.AssertionCredential, error) {
	if opts == nil || len(opts.Challenge) == 0 {
		return nil, fmt.Errorf("softkey: request options carry no challenge")
	}

	rpID := a.rpID(opts.RPID)
	allowed := make([][]byte, 0, len(opts.AllowCredentials))
	for _, d := range opts.AllowCredentials {
		allowed = append(allowed, d.ID)
	}
	cred := a.store.find(rpID, allowed)
	if cred == nil {
		return nil, fmt.Errorf("softkey: no credential for %s: %w", rpID, service.ErrCeremonyNotAllowed)
	}
	if err := a.prompt(ctx, "get", rpID); err != nil {
		return nil, err
	}

	key, err := cred.signer()
	if err != nil {
		return nil, err
	}
	count, err := a.store.bump(cred)
	if err != nil {
		return nil, fmt.Errorf("softkey: persist sign count: %w", err)
	}

	authData := a.authData(rpID, flagUserPresent|flagUserVerified, count)
	cdata, err := a.clientData("webauthn.get", opts.Challenge)
	if err != nil {
		return nil, err
	}
	cdataHash := sha256.Sum256(cdata)
	digest := sha256.Sum256(append(append([]byte(nil), authData...), cdataHash[:]...))
	sig, err := ecdsa.SignASN1(a.rand, key, digest[:])
	if err != nil {
		return nil, fmt.Errorf("softkey: sign assertion: %w", err)
	}

	a.log.Info(ctx, "Assertion signed", logger.String("rp_id", rpID), logger.Int64("sign_count", int64(count)))
	return &models.AssertionCredential{
		ID:    base64.RawURLEncoding.EncodeToString(cred.ID),
		RawID: append([]byte(nil), cred.ID...),
		Response: models.AssertionResponse{
			AuthenticatorData: authData,
			ClientDataJSON:    cdata,
			Signature:         sig,
			UserHandle:        append([]byte(nil), cred.UserHandle...),
		},
		Type: models.PublicKeyCredentialType,
	}, nil
}

// prompt asks the approver, honouring cancellation of ctx.
func (a *Authenticator) prompt(ctx context.Context, op, rpID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if a.approve == nil {
		return nil
	}
	if err := a.approve(ctx, op, rpID); err != nil {
		return fmt.Errorf("softkey: %s dismissed: %w", op, err)
	}
	return nil
}

func (a *Authenticator) rpID(requested string) string {
	if requested != "" {
		return requested
	}
	u, err := url.Parse(a.origin)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

func (a *Authenticator) authData(rpID string, flags byte, signCount uint32) []byte {
	rpHash := sha256.Sum256([]byte(rpID))
	out := make([]byte, 0, 37)
	out = append(out, rpHash[:]...)
	out = append(out, flags)
	return binary.BigEndian.AppendUint32(out, signCount)
}

func (a *Authenticator) clientData(typ string, challenge []byte) ([]byte, error) {
	raw, err := json.Marshal(clientData{
		Type:      typ,
		Challenge: base64.RawURLEncoding.EncodeToString(challenge),
		Origin:    a.origin,
	})
	if err != nil {
		return nil, fmt.Errorf("softkey: encode client data: %w", err)
	}
	return raw, nil
}

func (a *Authenticator) encodePublicKey(key *ecdsa.PrivateKey) ([]byte, error) {
	pub, err := key.PublicKey.ECDH()
	if err != nil {
		return nil, fmt.Errorf("softkey: public key: %w", err)
	}
	point := pub.Bytes() // 0x04 || X || Y
	raw, err := a.encMode.Marshal(coseKey{
		Kty: coseKeyTypeEC2,
		Alg: coseAlgES256,
		Crv: coseCurveP256,
		X:   point[1:33],
		Y:   point[33:65],
	})
	if err != nil {
		return nil, fmt.Errorf("softkey: encode public key: %w", err)
	}
	return raw, nil
}

func supportsES256(params []models.CredentialParameter) bool {
	if len(params) == 0 {
		return true
	}
	for _, p := range params {
		if p.Alg == coseAlgES256 && (p.Type == "" || p.Type == models.PublicKeyCredentialType) {
			return true
		}
	}
	return false
}

var _ service.Authenticator = (*Authenticator)(nil)
