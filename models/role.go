package models

import "strings"

// Role là cấp quyền gắn với một Profile.
type Role string

const (
	RoleAdmin   Role = "admin"   // quản trị hệ thống
	RoleManager Role = "manager" // quản lý nhóm, xem dashboard
	RoleMember  Role = "member"  // nhân viên đang onboarding
)

type Permission string

const (
	PermViewTeam       Permission = "team:view"
	PermManageTopics   Permission = "topics:manage"
	PermManageAccounts Permission = "accounts:manage"
	PermUploadFiles    Permission = "files:upload"
)

// Permissions là bảng quyền tĩnh theo vai trò.
var Permissions = map[Role][]Permission{
	RoleAdmin:   {PermViewTeam, PermManageTopics, PermManageAccounts, PermUploadFiles},
	RoleManager: {PermViewTeam, PermUploadFiles},
	RoleMember:  {},
}

func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	_, ok := Permissions[r]
	return r, ok
}

func (r Role) Can(p Permission) bool {
	for _, granted := range Permissions[r] {
		if granted == p {
			return true
		}
	}
	return false
}
