package models

import (
	"time"
)

type Customer struct {
	ID       string `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Name     string `json:"name" gorm:"type:varchar(255);not null"`
	Email    string `json:"email" gorm:"type:varchar(255);not null"`
	ImageURL string `json:"imageUrl" gorm:"column:image_url;type:varchar(255);not null"`
}

type Invoice struct {
	ID         string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	CustomerID string    `json:"customerId" gorm:"type:uuid;not null;index"`
	Customer   Customer  `json:"-" gorm:"foreignKey:CustomerID;references:ID"`
	Amount     int32     `json:"amount" gorm:"type:int;not null"` // cents, int4 as in the existing schema
	Status     string    `json:"status" gorm:"type:varchar(255);not null"`
	Date       time.Time `json:"date" gorm:"type:date;not null"`
}
