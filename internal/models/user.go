package models

// UserSettings are the editable account fields.
type UserSettings struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// UpdateSettingsRequest updates account fields; empty values are left unchanged.
type UpdateSettingsRequest struct {
	FullName string `json:"full_name" validate:"omitempty,max=120"`
	Email    string `json:"email" validate:"omitempty,email"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
