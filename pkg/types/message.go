package types

// Role 定义对话消息角色
type Role string

const (
	// RoleUser 用户角色
	RoleUser Role = "user"

	// RoleModel 模型角色 (Gemini 使用 "model" 而不是 "assistant")
	RoleModel Role = "model"

	// RoleSystem 系统角色
	RoleSystem Role = "system"
)

// Message 表示一条对话消息。
// 调用方每轮重新提交完整历史, 服务端不保存任何会话状态。
type Message struct {
	// Role 消息角色
	Role Role `json:"role"`

	// Text 消息文本
	Text string `json:"text"`
}

// NormalizeRole 将外部传入的角色名归一化。
// 允许调用方使用 "assistant" 别名, 内部统一为 RoleModel。
func NormalizeRole(r string) Role {
	switch Role(r) {
	case RoleUser, RoleModel, RoleSystem:
		return Role(r)
	}
	if r == "assistant" {
		return RoleModel
	}
	return RoleUser
}
