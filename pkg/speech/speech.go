// Package speech 封装语音合成。合成失败只影响音频播放,
// 文本回答照常送达。
package speech

import (
	"context"
	"errors"

	"github.com/wordflowlab/voicedoc/pkg/types"
)

// ErrSynthesis 合成失败的哨兵错误。
var ErrSynthesis = errors.New("speech synthesis failed")

// Request 一次合成请求。
type Request struct {
	// Text 待合成文本
	Text string

	// Persona 决定音色
	Persona types.Persona

	// ExpressiveMode 为真时选择表达力模型并保留情绪标签
	ExpressiveMode bool
}

// Synthesizer 文本转语音接口。
type Synthesizer interface {
	// Synthesize 返回音频字节流和内容类型
	Synthesize(ctx context.Context, req Request) ([]byte, string, error)

	Close() error
}

// VoiceConfig 单个音色配置。
type VoiceConfig struct {
	ID          string
	Name        string
	Description string
}

// 音色与文档画像的映射。未知画像回落到叙事音色。
var voiceMapping = map[types.Persona]VoiceConfig{
	types.PersonaLegal: {
		ID:          "jfIS2w2yJi0grJZPyEsk",
		Name:        "Professional Legal",
		Description: "Authoritative and clear",
	},
	types.PersonaFinancial: {
		ID:          "x70vRnQBMBu4FAYhjJbO",
		Name:        "Financial Advisor",
		Description: "Confident and trustworthy",
	},
	types.PersonaTechnical: {
		ID:          "wWWn96OtTHu1sn8SRGEr",
		Name:        "Technical Expert",
		Description: "Clear and precise",
	},
	types.PersonaAcademic: {
		ID:          "BZgkqPqms7Kj9ulSkVzn",
		Name:        "Academic Scholar",
		Description: "Thoughtful and articulate",
	},
	types.PersonaNarrative: {
		ID:          "L0yTtpRXzdyzQlzALhgD",
		Name:        "Storyteller",
		Description: "Warm and engaging",
	},
}

// VoiceFor 返回画像对应的音色。
func VoiceFor(persona types.Persona) VoiceConfig {
	if v, ok := voiceMapping[persona]; ok {
		return v
	}
	return voiceMapping[types.PersonaNarrative]
}
