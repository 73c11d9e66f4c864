package models

import "time"

// Profile is the user-facing identity record, one-to-one with an account
// at the external identity provider. Its ID matches the provider's
// subject claim; rows are provisioned out of band when accounts are
// created.
type Profile struct {
	ID          string    `gorm:"type:uuid;primarykey" json:"id"`
	DisplayName *string   `gorm:"type:varchar(255)" json:"display_name"`
	Bio         *string   `gorm:"type:text" json:"bio"`
	AvatarURL   *string   `gorm:"type:text" json:"avatar_url"`
	Website     *string   `gorm:"type:text" json:"website"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
