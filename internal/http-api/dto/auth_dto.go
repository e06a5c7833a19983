package dto

// Data Transfer Objects for the passwordless authentication flow

// SignUpRequest: payload for requesting a confirmation code
type SignUpRequest struct {
	Username string `json:"username" binding:"required,max=150"`
	Email    string `json:"email" binding:"required,email,max=254"`
}

// SignUpResponse echoes the accepted identity fields; the code itself
// only ever travels by mail
type SignUpResponse struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// TokenRequest: payload for exchanging a confirmation code for a token
type TokenRequest struct {
	Username         string `json:"username" binding:"required,max=150"`
	ConfirmationCode string `json:"confirmation_code" binding:"required,len=5"`
}

// TokenResponse: response payload after a successful exchange
type TokenResponse struct {
	Token string `json:"token"`
}
