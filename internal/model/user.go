package model

import "time"

// UserStatus is the principal lifecycle state.
type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusInvited   UserStatus = "INVITED"
	UserStatusSuspended UserStatus = "SUSPENDED"
)

// Role is the role a user holds within a tenant.
type Role string

const (
	RolePlatformAdmin Role = "PLATFORM_ADMIN"
	RoleTenantAdmin   Role = "TENANT_ADMIN"
	RoleInstaller     Role = "INSTALLER"
	RoleSupportAgent  Role = "SUPPORT_AGENT"
	RoleEndUser       Role = "END_USER"
)

// User is an authenticated principal.
type User struct {
	ID           string     `gorm:"primaryKey;size:36" json:"id"`
	Email        string     `gorm:"uniqueIndex;size:256;not null" json:"email"`
	Name         string     `gorm:"size:256" json:"name"`
	PasswordHash string     `gorm:"size:128;not null" json:"-"`
	Status       UserStatus `gorm:"size:32;not null;default:ACTIVE" json:"status"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`

	Memberships []Membership `gorm:"foreignKey:UserID" json:"memberships,omitempty"`
}

// Membership binds a user to a tenant under a single role.
// At most one membership may exist per (user, tenant).
type Membership struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    string    `gorm:"size:36;not null;uniqueIndex:idx_membership_user_tenant" json:"userId"`
	TenantID  string    `gorm:"size:36;not null;uniqueIndex:idx_membership_user_tenant" json:"tenantId"`
	Role      Role      `gorm:"size:32;not null" json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Tenant Tenant `gorm:"foreignKey:TenantID;constraint:OnDelete:CASCADE" json:"-"`
	User   User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}
