package pipeline

import (
	"context"
	"strings"

	"github.com/wordflowlab/voicedoc/pkg/logging"
	"github.com/wordflowlab/voicedoc/pkg/provider"
	"github.com/wordflowlab/voicedoc/pkg/telemetry"
	"github.com/wordflowlab/voicedoc/pkg/types"
)

// Classifier 在文档入库时用 LLM 判定文档画像。
// 分类失败不致命, 回落到叙事画像。
type Classifier struct {
	provider provider.Provider
	recorder telemetry.PipelineRecorder
}

// NewClassifier 创建画像分类器。
func NewClassifier(p provider.Provider, recorder telemetry.PipelineRecorder) *Classifier {
	if recorder == nil {
		recorder = telemetry.NopRecorder{}
	}
	return &Classifier{provider: p, recorder: recorder}
}

// ClassifyPersona 判定文档画像, 任何失败都返回 PersonaNarrative。
func (c *Classifier) ClassifyPersona(ctx context.Context, documentText string) types.Persona {
	messages := []types.Message{
		{Role: types.RoleUser, Text: classifierPrompt(documentText)},
	}

	resp, err := c.provider.Complete(ctx, messages, nil)
	if err != nil {
		logging.Error(ctx, "persona classification failed", map[string]interface{}{
			"error": err.Error(),
		})
		c.recorder.RecordError("persona_error", telemetry.RequestTags{VoiceMode: string(types.VoiceModeStandard)})
		return types.PersonaNarrative
	}

	persona := types.ParsePersona(strings.ToLower(strings.TrimSpace(resp.Text)))
	c.recorder.RecordPersona(string(persona), telemetry.RequestTags{VoiceMode: string(types.VoiceModeStandard)})
	return persona
}
