package auth

import "github.com/blues/civicops/internal/model"

// Capability 接口访问能力
type Capability string

const (
	CapScheduleRead   Capability = "schedule:read"
	CapScheduleWrite  Capability = "schedule:write"
	CapScheduleDelete Capability = "schedule:delete"
	CapApprovalRead   Capability = "approval:read"
	CapApprovalAct    Capability = "approval:act"
)

// capabilities 角色能力表，所有路由的授权都从这里读取
var capabilities = map[model.Role][]Capability{
	// 管理员不在审批链中，不能处理审批
	model.RoleAdmin:      {CapScheduleRead, CapScheduleWrite, CapScheduleDelete, CapApprovalRead},
	model.RolePM:         {CapScheduleRead, CapScheduleWrite, CapScheduleDelete, CapApprovalRead},
	model.RoleRDCManager: {CapScheduleRead, CapApprovalRead, CapApprovalAct},
	model.RoleMinister:   {CapScheduleRead, CapApprovalRead, CapApprovalAct},
	model.RoleViewer:     {CapScheduleRead},
}

// Can 判断角色是否拥有能力
func Can(role model.Role, capability Capability) bool {
	for _, c := range capabilities[role] {
		if c == capability {
			return true
		}
	}
	return false
}

// CapabilitiesOf 返回角色拥有的能力
func CapabilitiesOf(role model.Role) []Capability {
	return append([]Capability(nil), capabilities[role]...)
}
