package models

// Profile mirrors identity-provider user data. The lifecycle service only reads it.
type Profile struct {
	ID           string `gorm:"primaryKey;type:varchar(64)" json:"id"`
	FullName     string `json:"full_name"`
	Email        string `json:"email"`
	Organization string `json:"organization"`
	Phone        string `json:"phone"`
	Role         Role   `gorm:"type:varchar(20)" json:"role"`
}
