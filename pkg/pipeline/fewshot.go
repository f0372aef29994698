package pipeline

import "github.com/wordflowlab/voicedoc/pkg/types"

// fewShotExample 情感标注的示例对, 作为 Call 2 的对话历史注入。
type fewShotExample struct {
	UserInput      string
	ExpectedOutput string
}

var narrativeExamples = []fewShotExample{
	{
		UserInput: "Add emotion tags to this text:\n" +
			`"Sarah sighed. The stack on her desk seemed to grow taller each day. There has to be a better way, she muttered."`,
		ExpectedOutput: `Sarah [sigh] sighed. The [wearily] stack on her desk seemed to grow [frustrated] taller each day. [frustrated] There has to be a better way, she [wearily] muttered.`,
	},
	{
		UserInput: "Add emotion tags to this text:\n" +
			`"Still reading that monster?" Marcus asked. "Have you tried talking to it?" Sarah looked at him like he'd lost his mind.`,
		ExpectedOutput: `[playfully] "Still reading that monster?" Marcus asked. [intrigued] "Have you tried talking to it?" [stunned] Sarah looked at him like he'd lost his mind.`,
	},
	{
		UserInput: "Add emotion tags to this text:\n" +
			`"The future of reading isn't reading at all. It's conversation. It's understanding through dialogue rather than silent struggle."`,
		ExpectedOutput: `[reflectively] "The future of reading isn't reading at all. [warmly] It's conversation. [passionately] It's understanding through dialogue rather than [poetically] silent struggle."`,
	},
}

var legalExamples = []fewShotExample{
	{
		UserInput: "Add emotion tags to this text:\n" +
			`"The contract is void under Section 5. The plaintiff argues this is unlawful. The court must decide carefully."`,
		ExpectedOutput: `The [pauses] contract is void under Section 5. [calm] The plaintiff argues this is [warily] unlawful. [formally] The court must decide carefully.`,
	},
}

var financialExamples = []fewShotExample{
	{
		UserInput: "Add emotion tags to this text:\n" +
			`"Your portfolio gained 3 percent. Interest rates are rising. This is positive growth despite market conditions."`,
		ExpectedOutput: `Your portfolio gained [excited] 3 percent. [pauses] Interest rates are rising. [nervous] This is [calm] positive growth despite market conditions.`,
	},
}

var technicalExamples = []fewShotExample{
	{
		UserInput: "Add emotion tags to this text:\n" +
			`"Deploy using Docker containers. If the query fails, check the logs carefully. This solution is proven and reliable."`,
		ExpectedOutput: `Deploy using [pauses] Docker containers. [hesitates] If the query fails, check the logs carefully. [excited] This solution is proven and reliable.`,
	},
}

var academicExamples = []fewShotExample{
	{
		UserInput: "Add emotion tags to this text:\n" +
			`"The hypothesis requires further testing. However, limitations exist in our methodology. The results are promising."`,
		ExpectedOutput: `The [pauses] hypothesis requires [hesitates] further testing. [thoughtfully] However, limitations exist in our methodology. [calmly] The results are promising.`,
	},
}

// examplesFor 按角色选择示例集。未知角色一律落到叙事集,
// 这是一个显式分支而不是 map 缺省。
func examplesFor(persona types.Persona) []fewShotExample {
	switch persona {
	case types.PersonaLegal:
		return legalExamples
	case types.PersonaFinancial:
		return financialExamples
	case types.PersonaTechnical:
		return technicalExamples
	case types.PersonaAcademic:
		return academicExamples
	default:
		return narrativeExamples
	}
}

// fewShotHistory 把示例对展开成交替的 user/model 消息。
func fewShotHistory(persona types.Persona) []types.Message {
	examples := examplesFor(persona)
	history := make([]types.Message, 0, len(examples)*2)
	for _, ex := range examples {
		history = append(history,
			types.Message{Role: types.RoleUser, Text: ex.UserInput},
			types.Message{Role: types.RoleModel, Text: ex.ExpectedOutput},
		)
	}
	return history
}
