package types

// Persona 文档画像, 决定语音风格与情绪标注的 few-shot 示例组。
// 未知取值一律回落到 PersonaNarrative, 回落是显式分支而不是查表缺省。
type Persona string

const (
	PersonaLegal     Persona = "legal"
	PersonaFinancial Persona = "financial"
	PersonaTechnical Persona = "technical"
	PersonaAcademic  Persona = "academic"
	PersonaNarrative Persona = "narrative"
)

// ParsePersona 解析 persona 字符串, 未知值返回 PersonaNarrative。
func ParsePersona(s string) Persona {
	switch Persona(s) {
	case PersonaLegal, PersonaFinancial, PersonaTechnical, PersonaAcademic, PersonaNarrative:
		return Persona(s)
	}
	return PersonaNarrative
}

// VoiceMode 语音输出模式
type VoiceMode string

const (
	// VoiceModeStandard 标准模式: 不做情绪标注, 清理所有括号类泄漏
	VoiceModeStandard VoiceMode = "standard"

	// VoiceModeExpressive 表达模式: 第二次 LLM 调用叠加情绪标签
	VoiceModeExpressive VoiceMode = "expressive"
)

// VoiceModeFor 根据 expressive 开关返回对应模式。
func VoiceModeFor(expressive bool) VoiceMode {
	if expressive {
		return VoiceModeExpressive
	}
	return VoiceModeStandard
}
