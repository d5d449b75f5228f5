package models

import "gorm.io/gorm"

// OTP is a one-time code bound to a (mobile, purpose) pair. Rows are never
// deleted; IsUsed flips exactly once, on consumption or on supersede.
type OTP struct {
	gorm.Model
	Mobile  string     `json:"mobile" gorm:"size:10;not null;index:idx_otp_lookup,priority:1"`
	Code    string     `json:"-" gorm:"size:6;not null"`
	Purpose OTPPurpose `json:"purpose" gorm:"size:50;not null;index:idx_otp_lookup,priority:2"`
	IsUsed  bool       `json:"is_used" gorm:"default:false;index:idx_otp_lookup,priority:3"`
}
