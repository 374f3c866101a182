package models

import (
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// User represents a user account. Accounts are created either by local
// signup (email + password) or on first sync from the identity provider,
// in which case IdentitySubject carries the provider's stable subject.
type User struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	IdentitySubject *string   `gorm:"uniqueIndex" json:"uid,omitempty"` // nil for unlinked local accounts
	FullName        string    `gorm:"not null" json:"fullName"`
	Email           string    `gorm:"uniqueIndex;not null" json:"email"`
	Password        string    `json:"-"` // Never return password in JSON
	PhotoURL        string    `json:"photoURL,omitempty"`
	Provider        string    `gorm:"default:password" json:"provider"` // 'password', 'google', etc.
	Online          bool      `json:"online"`                           // legacy column; presence truth lives in the hub
	LastSeen        time.Time `json:"lastSeen"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// SignupRequest is the request structure for local account creation
type SignupRequest struct {
	FullName string `json:"fullName" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// LoginRequest is the request structure for user login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// SyncRequest carries a profile snapshot from the identity provider
type SyncRequest struct {
	UID      string `json:"uid" binding:"required"`
	FullName string `json:"fullName"`
	Email    string `json:"email" binding:"required,email"`
	PhotoURL string `json:"photoURL"`
	Provider string `json:"provider"`
}

// UserResponse is the response structure for user data (without sensitive info)
type UserResponse struct {
	ID       uint      `json:"id"`
	UID      string    `json:"uid,omitempty"`
	FullName string    `json:"fullName"`
	Email    string    `json:"email"`
	PhotoURL string    `json:"photoURL,omitempty"`
	Provider string    `json:"provider"`
	Online   bool      `json:"online"`
	LastSeen time.Time `json:"lastSeen"`
}

// HashPassword hashes a password for storage
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPasswordHash compares a password with a hash
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// BeforeCreate is a GORM hook to hash the password before saving.
// Provider-synced accounts have no password and are stored as-is.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.Password != "" {
		hashed, err := HashPassword(u.Password)
		if err != nil {
			return err
		}
		u.Password = hashed
	}
	if u.Provider == "" {
		u.Provider = "password"
	}
	if u.LastSeen.IsZero() {
		u.LastSeen = time.Now()
	}
	return nil
}

// ToResponse converts a User model to a UserResponse
func (u *User) ToResponse() UserResponse {
	resp := UserResponse{
		ID:       u.ID,
		FullName: u.FullName,
		Email:    u.Email,
		PhotoURL: u.PhotoURL,
		Provider: u.Provider,
		Online:   u.Online,
		LastSeen: u.LastSeen,
	}
	if u.IdentitySubject != nil {
		resp.UID = *u.IdentitySubject
	}
	return resp
}

// ChatID returns the identifier other users address this account by:
// the identity-provider subject when linked, the storage ID otherwise.
func (u *User) ChatID() string {
	if u.IdentitySubject != nil && *u.IdentitySubject != "" {
		return *u.IdentitySubject
	}
	return strconv.FormatUint(uint64(u.ID), 10)
}
