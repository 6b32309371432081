package model

// ErrorResponse is the standard envelope for error responses.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the structured error information returned by the API.
type ErrorDetail struct {
	Code    int                    `json:"code"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// MessageResponse is returned by operations whose only payload is a status
// message.
type MessageResponse struct {
	Message string `json:"message"`
}

// RegisterResponse is returned by POST /users/register.
type RegisterResponse struct {
	Message string `json:"message"`
	UserID  int64  `json:"user_id"`
}

// NumberResponse is returned by POST /numbers/detail_number.
type NumberResponse struct {
	Message  string `json:"message"`
	NumberID int64  `json:"number_id"`
}

// DeleteAllResponse reports how many rows a bulk delete removed.
type DeleteAllResponse struct {
	Message      string `json:"message"`
	DeletedCount int64  `json:"deleted_count"`
}

// LoginResponse is returned by a successful username/password login.
type LoginResponse struct {
	Message   string `json:"message"`
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	ExpiresIn int    `json:"expires_in"`
}

// LegacyLoginResponse is returned by the identity-match login and carries a
// signed bearer credential.
type LegacyLoginResponse struct {
	AccessToken string `json:"access_token"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status    string         `json:"status"`
	Database  DatabaseHealth `json:"database"`
	Counts    Counts         `json:"counts"`
	Endpoints []Endpoint     `json:"endpoints"`
}

// DatabaseHealth describes the backing SQLite file.
type DatabaseHealth struct {
	Path   string `json:"path"`
	Exists bool   `json:"exists"`
	Size   int64  `json:"size"`
}

// Endpoint is one entry in the health endpoint's route directory.
type Endpoint struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	Description string `json:"description"`
	Protected   bool   `json:"protected,omitempty"`
}
