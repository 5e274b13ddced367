package models

import "github.com/google/uuid"

// User is the subset of the identity record needed to address notifications.
type User struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	FranchiseID *uuid.UUID `gorm:"column:franchise_id;type:uuid;index"`
	Role        string     `gorm:"column:role;not null"`
	Email       string     `gorm:"column:email;not null"`
	Phone       *string    `gorm:"column:phone"`
	FirstName   string     `gorm:"column:first_name;not null"`
	// GatewayCustomerID is the owner's customer id on the franchise account.
	GatewayCustomerID *string `gorm:"column:gateway_customer_id"`
}
