package models

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// ================================================================================
// Binary Wire Encoding
// ================================================================================

// ByteArray is raw bytes that travel as a JSON array of numbers.
// Decoding also accepts base64url (padded or not) and standard base64 strings.
type ByteArray []byte

// MarshalJSON implements json.Marshaler.
func (b ByteArray) MarshalJSON() ([]byte, error) {
	if b == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.Grow(len(b)*4 + 2)
	buf.WriteByte('[')
	for i, v := range b {
		if i > 0 {
			buf.WriteByte(',')
		}
		fmt.Fprintf(&buf, "%d", v)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *ByteArray) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*b = nil
		return nil
	}

	switch trimmed[0] {
	case '[':
		var nums []int
		if err := json.Unmarshal(trimmed, &nums); err != nil {
			return fmt.Errorf("byte array: %w", err)
		}
		out := make([]byte, len(nums))
		for i, n := range nums {
			if n < 0 || n > 255 {
				return fmt.Errorf("byte array: element %d out of range: %d", i, n)
			}
			out[i] = byte(n)
		}
		*b = out
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		out, err := DecodeBase64(s)
		if err != nil {
			return fmt.Errorf("byte array: %w", err)
		}
		*b = out
		return nil
	default:
		return fmt.Errorf("byte array: unsupported JSON value %q", string(trimmed))
	}
}

// DecodeBase64 accepts base64url and standard base64, with or without padding.
func DecodeBase64(s string) ([]byte, error) {
	s = strings.TrimRight(s, "=")
	if strings.ContainsAny(s, "+/") {
		return base64.RawStdEncoding.DecodeString(s)
	}
	return base64.RawURLEncoding.DecodeString(s)
}

// ================================================================================
// Ceremony Options (backend -> platform)
// ================================================================================

// RelyingParty identifies the site requesting the credential.
type RelyingParty struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// UserEntity is the account the credential is bound to.
type UserEntity struct {
	ID          ByteArray `json:"id"`
	Name        string    `json:"name"`
	DisplayName string    `json:"displayName"`
}

// CredentialParameter is an acceptable key type and COSE algorithm.
type CredentialParameter struct {
	Type string `json:"type"`
	Alg  int    `json:"alg"`
}

// CredentialDescriptor names an existing credential.
type CredentialDescriptor struct {
	Type       string    `json:"type"`
	ID         ByteArray `json:"id"`
	Transports []string  `json:"transports,omitempty"`
}

// AuthenticatorSelection narrows which authenticators may take part.
type AuthenticatorSelection struct {
	AuthenticatorAttachment string `json:"authenticatorAttachment,omitempty"`
	ResidentKey             string `json:"residentKey,omitempty"`
	RequireResidentKey      bool   `json:"requireResidentKey,omitempty"`
	UserVerification        string `json:"userVerification,omitempty"`
}

// CredentialCreationOptions is the registration request handed to the platform authenticator.
type CredentialCreationOptions struct {
	Challenge              ByteArray               `json:"challenge"`
	RP                     RelyingParty            `json:"rp"`
	User                   UserEntity              `json:"user"`
	PubKeyCredParams       []CredentialParameter   `json:"pubKeyCredParams"`
	Timeout                int64                   `json:"timeout,omitempty"`
	ExcludeCredentials     []CredentialDescriptor  `json:"excludeCredentials,omitempty"`
	AuthenticatorSelection *AuthenticatorSelection `json:"authenticatorSelection,omitempty"`
	Attestation            string                  `json:"attestation,omitempty"`

	// ServerChallenge is the opaque challenge string some backends require back on completion.
	ServerChallenge string `json:"-"`
}

// CredentialRequestOptions is the assertion request handed to the platform authenticator.
type CredentialRequestOptions struct {
	Challenge        ByteArray              `json:"challenge"`
	Timeout          int64                  `json:"timeout,omitempty"`
	RPID             string                 `json:"rpId,omitempty"`
	AllowCredentials []CredentialDescriptor `json:"allowCredentials,omitempty"`
	UserVerification string                 `json:"userVerification,omitempty"`

	ServerChallenge string `json:"-"`
}

// ================================================================================
// Ceremony Results (platform -> backend)
// ================================================================================

// AttestationResponse is the authenticator output of a registration ceremony.
type AttestationResponse struct {
	AttestationObject ByteArray `json:"attestationObject"`
	ClientDataJSON    ByteArray `json:"clientDataJSON"`
}

// PublicKeyCredential is a newly created credential.
type PublicKeyCredential struct {
	ID       string              `json:"id"`
	RawID    ByteArray           `json:"rawId"`
	Response AttestationResponse `json:"response"`
	Type     string              `json:"type"`
}

// AssertionResponse is the authenticator output of an authentication ceremony.
type AssertionResponse struct {
	AuthenticatorData ByteArray `json:"authenticatorData"`
	ClientDataJSON    ByteArray `json:"clientDataJSON"`
	Signature         ByteArray `json:"signature"`
	UserHandle        ByteArray `json:"userHandle"`
}

// AssertionCredential is a signed assertion over a server challenge.
type AssertionCredential struct {
	ID       string            `json:"id"`
	RawID    ByteArray         `json:"rawId"`
	Response AssertionResponse `json:"response"`
	Type     string            `json:"type"`
}

// PublicKeyCredentialType is the only credential type WebAuthn defines.
const PublicKeyCredentialType = "public-key"

// ================================================================================
// Backend Request Bodies
// ================================================================================

// RegistrationBeginRequest starts a registration ceremony.
type RegistrationBeginRequest struct {
	UserID      string `json:"userId"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
}

// RegistrationCompleteRequest submits a created credential.
type RegistrationCompleteRequest struct {
	Credential PublicKeyCredential `json:"credential"`
	KeyName    string              `json:"keyName"`
	Name       string              `json:"name,omitempty"`
	Challenge  string              `json:"challenge,omitempty"`
}

// AuthenticationBeginRequest starts an authentication ceremony.
type AuthenticationBeginRequest struct {
	UserID string `json:"userId"`
}

// AuthenticationCompleteRequest submits an assertion.
type AuthenticationCompleteRequest struct {
	Assertion  AssertionCredential  `json:"assertion"`
	Credential *AssertionCredential `json:"credential,omitempty"`
	Challenge  string               `json:"challenge,omitempty"`
}

// Confirmation is the backend's acknowledgement of a completed or deleted operation.
type Confirmation struct {
	Verified   bool          `json:"verified,omitempty"`
	Message    string        `json:"message,omitempty"`
	Credential *DeviceRecord `json:"credential,omitempty"`
	Success    bool          `json:"success,omitempty"`
}
