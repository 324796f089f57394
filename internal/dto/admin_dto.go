package dto

// RoleUpdateRequest describes the payload for changing a user's role.
type RoleUpdateRequest struct {
	Role string `json:"role" validate:"required,oneof=student instructor admin"`
}

// UserListQuery captures admin user listing filters.
type UserListQuery struct {
	Page   int    `query:"page" validate:"omitempty,gte=1"`
	Limit  int    `query:"limit" validate:"omitempty,gte=1,lte=100"`
	Role   string `query:"role" validate:"omitempty,oneof=student instructor admin"`
	Search string `query:"search"`
}
