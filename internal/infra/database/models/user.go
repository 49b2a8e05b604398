package models

type User struct {
	ID       string `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Name     string `json:"name" gorm:"type:varchar(255);not null"`
	Email    string `json:"email" gorm:"type:text;not null;uniqueIndex"`
	Password string `json:"-" gorm:"type:text;not null"`
}
