package user

import (
	"time"
)

// Role 用户角色
// 能力边界：医生开立/停用医嘱，护士执行给药，药师管理库存与转移
type Role string

const (
	RoleDoctor     Role = "doctor"
	RoleNurse      Role = "nurse"
	RolePharmacist Role = "pharmacist"
	RoleAdmin      Role = "admin"
)

// IsValid 校验角色取值
func (r Role) IsValid() bool {
	switch r {
	case RoleDoctor, RoleNurse, RolePharmacist, RoleAdmin:
		return true
	}
	return false
}

// User 用户实体（聚合根）
// 密码只保存bcrypt哈希；领域实体不携带GORM tag，映射在仓储层完成
type User struct {
	ID        uint
	Email     string
	Password  string // bcrypt哈希值
	Name      string
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewUser 创建新用户（工厂方法）
// hashedPassword必须是bcrypt加密后的密码
func NewUser(email, hashedPassword, name string, role Role) *User {
	now := time.Now()
	return &User{
		Email:     email,
		Password:  hashedPassword,
		Name:      name,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CanPrescribe 是否可以开立医嘱
func (u *User) CanPrescribe() bool {
	return u.Role == RoleDoctor || u.Role == RoleAdmin
}

// CanAdminister 是否可以执行给药
func (u *User) CanAdminister() bool {
	return u.Role == RoleNurse || u.Role == RoleAdmin
}

// CanManageStock 是否可以管理库存与转移
func (u *User) CanManageStock() bool {
	return u.Role == RolePharmacist || u.Role == RoleAdmin
}
