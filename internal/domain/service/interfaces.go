package service

import (
	"context"

	"github.com/turtacn/uats/internal/domain/models"
)

//go:generate mockery --name WebAuthnAPI --output mocks --outpkg mocks
// WebAuthnAPI defines the backend endpoints of the security-key ceremonies.
// Every call carries the caller's bearer token; an empty token sends no Authorization header.
// WebAuthnAPI 定义了安全密钥仪式的后端接口。
// 每次调用都携带调用者的持有者令牌；空令牌不发送 Authorization 头。
type WebAuthnAPI interface {
	// ListDevices returns the security keys registered for a user.
	// ListDevices 返回为用户注册的安全密钥。
	ListDevices(ctx context.Context, token, userID string) ([]models.DeviceRecord, error)

	// BeginRegistration asks the backend for credential-creation options.
	// BeginRegistration 向后端请求凭据创建选项。
	BeginRegistration(ctx context.Context, token string, req models.RegistrationBeginRequest) (*models.CredentialCreationOptions, error)

	// CompleteRegistration submits the created credential and its display name.
	// CompleteRegistration 提交创建的凭据及其显示名称。
	CompleteRegistration(ctx context.Context, token string, req models.RegistrationCompleteRequest) (*models.Confirmation, error)

	// BeginAuthentication asks the backend for assertion-request options.
	// BeginAuthentication 向后端请求断言请求选项。
	BeginAuthentication(ctx context.Context, token string, req models.AuthenticationBeginRequest) (*models.CredentialRequestOptions, error)

	// CompleteAuthentication submits the signed assertion.
	// CompleteAuthentication 提交签名的断言。
	CompleteAuthentication(ctx context.Context, token string, req models.AuthenticationCompleteRequest) (*models.Confirmation, error)

	// DeleteDevice removes a registered security key.
	// DeleteDevice 删除已注册的安全密钥。
	DeleteDevice(ctx context.Context, token, deviceID string) (*models.Confirmation, error)
}

//go:generate mockery --name AssetAPI --output mocks --outpkg mocks
// AssetAPI defines the balance, transfer and history endpoints.
// AssetAPI 定义了余额、转账和历史记录接口。
type AssetAPI interface {
	Balances(ctx context.Context, token, userID string) ([]models.Balance, error)
	Transfer(ctx context.Context, token string, req models.TransferRequest) (*models.TransferReceipt, error)
	History(ctx context.Context, token, userID string) ([]models.TransferRecord, error)
}

//go:generate mockery --name ProfileAPI --output mocks --outpkg mocks
// ProfileAPI defines the user-profile endpoints.
// ProfileAPI 定义了用户资料接口。
type ProfileAPI interface {
	Profile(ctx context.Context, token, userID string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, token, userID string, update models.ProfileUpdate) (*models.Profile, error)
}

//go:generate mockery --name Authenticator --output mocks --outpkg mocks
// Authenticator is the platform credential API: it creates credentials and signs assertions.
// Failures should wrap ErrCeremonyNotAllowed or ErrCeremonyNotSupported where they apply.
// Authenticator 是平台凭据 API：它创建凭据并签署断言。
type Authenticator interface {
	// Create runs the credential-creation ceremony.
	// Create 执行凭据创建仪式。
	Create(ctx context.Context, opts *models.CredentialCreationOptions) (*models.PublicKeyCredential, error)

	// Get runs the assertion ceremony.
	// Get 执行断言仪式。
	Get(ctx context.Context, opts *models.CredentialRequestOptions) (*models.AssertionCredential, error)
}

// Session is an identity-provider session able to mint bearer tokens.
// An empty token with a nil error means the session holds no token.
// Session 是能够签发持有者令牌的身份提供者会话。
type Session interface {
	ID() string
	Token(ctx context.Context) (string, error)
}

// IdentitySnapshot is one observation of the identity provider's (user, loaded, session) triple.
// IdentitySnapshot 是对身份提供者（用户、已加载、会话）三元组的一次观察。
type IdentitySnapshot struct {
	User    *models.User
	Loaded  bool
	Session Session
}

// Complete reports whether a token may be requested: user present, provider loaded and session present.
func (s IdentitySnapshot) Complete() bool {
	return s.User != nil && s.Loaded && s.Session != nil
}

//go:generate mockery --name IdentityProvider --output mocks --outpkg mocks
// IdentityProvider reports the signed-in user and session and signals every change.
// IdentityProvider 报告已登录的用户和会话，并通知每次变更。
type IdentityProvider interface {
	// Current returns the present triple.
	// Current 返回当前的三元组。
	Current() IdentitySnapshot

	// Changes delivers every subsequent triple. The channel closes when the provider shuts down.
	// Changes 传递后续的每个三元组。提供者关闭时通道关闭。
	Changes() <-chan IdentitySnapshot
}
