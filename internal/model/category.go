package model

type Category struct {
	ID          int     `json:"id" db:"id"`
	Name        string  `json:"name" db:"name"`
	Description *string `json:"description,omitempty" db:"description"`
	Icon        *string `json:"icon,omitempty" db:"icon"`
	Color       *string `json:"color,omitempty" db:"color"`
	IsActive    bool    `json:"is_active" db:"is_active"`
}
