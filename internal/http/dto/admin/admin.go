// Package admin define los DTOs de la API de administración.
package admin

import "time"

type RoleItem struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	NormalizedName string    `json:"normalized_name"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type RoleListResponse struct {
	Roles []RoleItem `json:"roles"`
}

// UpsertRoleRequest crea (sin ID) o renombra (con ID) un rol.
type UpsertRoleRequest struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

type DeleteRoleRequest struct {
	ID string `json:"id"`
}

type UserItem struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	Name             string     `json:"name,omitempty"`
	EmailVerified    bool       `json:"email_verified"`
	TwoFactorEnabled bool       `json:"two_factor_enabled"`
	LockedOut        bool       `json:"locked_out"`
	LockoutUntil     *time.Time `json:"lockout_until,omitempty"`
	Roles            []string   `json:"roles"`
	CreatedAt        time.Time  `json:"created_at"`
}

type UserListResponse struct {
	Users []UserItem `json:"users"`
}

// ManageUserRolesRequest reemplaza por completo los roles del usuario.
type ManageUserRolesRequest struct {
	UserID string   `json:"user_id"`
	Roles  []string `json:"roles"`
}

// RoleSelection marca, para un usuario dado, qué roles del catálogo
// tiene asignados.
type RoleSelection struct {
	Name     string `json:"name"`
	Selected bool   `json:"selected"`
}

type UserRoleSelectionResponse struct {
	UserID string          `json:"user_id"`
	Email  string          `json:"email"`
	Roles  []RoleSelection `json:"roles"`
}

type UserRolesResponse struct {
	UserID string   `json:"user_id"`
	Roles  []string `json:"roles"`
}

type LockUnlockUserRequest struct {
	UserID string `json:"user_id"`
}

type LockUnlockUserResponse struct {
	UserID       string     `json:"user_id"`
	LockedOut    bool       `json:"locked_out"`
	LockoutUntil *time.Time `json:"lockout_until,omitempty"`
}

type DeleteUserRequest struct {
	UserID string `json:"user_id"`
}
