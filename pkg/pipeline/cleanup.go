package pipeline

import (
	"regexp"
	"strings"
)

var (
	parenSpanRe   = regexp.MustCompile(`\([^)]*?\)`)
	bracketSpanRe = regexp.MustCompile(`\[[^\]]*?\]`)
)

// StripParentheticals 去掉模型幻觉产生的圆括号旁白, 表达模式的后处理。
func StripParentheticals(text string) string {
	return strings.TrimSpace(parenSpanRe.ReplaceAllString(text, ""))
}

// StripAnnotations 去掉圆括号和方括号两类标注, 标准模式的防泄漏清理。
func StripAnnotations(text string) string {
	text = parenSpanRe.ReplaceAllString(text, "")
	text = bracketSpanRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
