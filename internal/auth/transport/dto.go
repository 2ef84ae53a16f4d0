package transport

type MeResponse struct {
	OK     bool   `json:"ok"`
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

type SetRoleRequest struct {
	Role string `json:"role" validate:"required,max=32,alphanum"`
}
