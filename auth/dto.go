// Data transfer objects for the auth endpoints. Validation rules live in the
// struct tags and are enforced by ValidateStruct before any business logic
// runs.
package auth

// RegisterRequest represents the registration request payload.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=255" example:"Alice"`
	Email    string `json:"email" validate:"required,email,max=255" example:"alice@example.com"`
	Password string `json:"password" validate:"required,min=6" example:"secret1"`
}

// LoginRequest represents the login request payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" example:"alice@example.com"`
	Password string `json:"password" validate:"required" example:"secret1"`
}

// UserResponse is the public projection of a user returned by the auth
// endpoints: name and email only, never the id or hash.
type UserResponse struct {
	Name  string `json:"name" example:"Alice"`
	Email string `json:"email" example:"alice@example.com"`
}

// Authorization carries an issued token in responses. ExpiresIn is in
// seconds and omitted on registration, matching the API contract.
type Authorization struct {
	Token     string `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	Type      string `json:"type" example:"bearer"`
	ExpiresIn int64  `json:"expires_in,omitempty" example:"3600"`
}

// RegisterResponse is the 201 payload for a successful registration.
// The original contract spells this field "authorisation"; kept as-is.
type RegisterResponse struct {
	Status        string        `json:"status" example:"success"`
	Message       string        `json:"message" example:"User created successfully"`
	User          UserResponse  `json:"user"`
	Authorisation Authorization `json:"authorisation"`
}

// TokenResponse is the payload for successful login and refresh.
type TokenResponse struct {
	Status        string        `json:"status" example:"success"`
	User          UserResponse  `json:"user"`
	Authorization Authorization `json:"authorization"`
}

// MeResponse is the payload for the current-user endpoint.
type MeResponse struct {
	Status string       `json:"status" example:"success"`
	User   UserResponse `json:"user"`
}

// MessageResponse is a generic status/message payload (logout and the like).
type MessageResponse struct {
	Status  string `json:"status" example:"success"`
	Message string `json:"message" example:"Successfully logged out"`
}

// publicUser projects a stored user onto its public response shape.
func publicUser(user *User) UserResponse {
	return UserResponse{Name: user.Name, Email: user.Email}
}
