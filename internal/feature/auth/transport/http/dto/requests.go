// Package dto はauthフィーチャーのHTTPトランスポート層のデータ転送オブジェクトを定義します。
// Field constraints are checked by the credential store so that every
// violation is reported at once; the request types only shape the JSON.
package dto

// SignupReq は/signupエンドポイントのリクエストボディを表します。
type SignupReq struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

// LoginReq は/loginエンドポイントのリクエストボディを表します。
type LoginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ForgotPasswordReq struct {
	Email string `json:"email"`
}

type ResetPasswordReq struct {
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

type UpdatePasswordReq struct {
	PasswordCurrent string `json:"passwordCurrent"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

// UpdateMeReq carries the self-service profile fields. The password fields are
// only decoded so that their presence can be rejected.
type UpdateMeReq struct {
	Name            string  `json:"name"`
	Email           string  `json:"email"`
	Password        *string `json:"password"`
	PasswordConfirm *string `json:"passwordConfirm"`
}

// HasPassword reports whether the client tried to change the password here.
func (r UpdateMeReq) HasPassword() bool {
	return r.Password != nil || r.PasswordConfirm != nil
}

type UpdateRoleReq struct {
	Role string `json:"role"`
}
