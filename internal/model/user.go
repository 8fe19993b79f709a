package model

// ── 角色枚举 ──

const (
	RoleMember      = "member"
	RoleEditor      = "editor"
	RoleAdmin       = "admin"
	RoleSystemAdmin = "system_admin"
)

// roleRank 角色等级表，数值越大权限越高
var roleRank = map[string]int{
	RoleMember:      1,
	RoleEditor:      2,
	RoleAdmin:       3,
	RoleSystemAdmin: 4,
}

// ValidRole 判断角色是否属于封闭枚举
func ValidRole(role string) bool {
	_, ok := roleRank[role]
	return ok
}

// RoleAtLeast 判断 role 的权限等级是否不低于 min。
// 未知角色一律视为无权限。
func RoleAtLeast(role, min string) bool {
	r, ok := roleRank[role]
	if !ok {
		return false
	}
	m, ok := roleRank[min]
	if !ok {
		return false
	}
	return r >= m
}

// User 用户表 — 对应 users
type User struct {
	UserID       string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Name         string `gorm:"type:varchar(100);not null"                     json:"name"`
	Email        string `gorm:"type:varchar(255);not null;uniqueIndex"         json:"email"`
	PasswordHash string `gorm:"type:varchar(255);not null"                     json:"-"`
	Role         string `gorm:"type:varchar(20);not null;default:'member'"     json:"role"`
	IsActive     bool   `gorm:"not null;default:true"                          json:"is_active"`
	SoftDeleteModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }
