package users

import "time"

// User is a locally registered account. Password holds the base64 AES
// ciphertext and IV the base64 initialization vector used to produce it.
type User struct {
	UserID    uint      `gorm:"column:user_id;primaryKey;autoIncrement"`
	Username  string    `gorm:"column:username;size:255;not null;uniqueIndex"`
	Password  string    `gorm:"column:password;size:255;not null"`
	IV        string    `gorm:"column:iv;size:255;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName provides the explicit table binding for GORM.
func (User) TableName() string {
	return "users"
}
