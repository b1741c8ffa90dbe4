package packets

type ProfileResponse struct {
	ID        int     `json:"id"`
	Email     string  `json:"email"`
	Name      *string `json:"name"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

type MarkedResponse struct {
	Marked int `json:"marked"`
}
