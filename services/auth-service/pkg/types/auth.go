package types

// TokenTypeBearer is the token_type reported with every token pair.
const TokenTypeBearer = "bearer"

// Tokens is a freshly issued access and refresh token pair.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}
