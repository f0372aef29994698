package pipeline

import (
	"regexp"
	"strconv"
	"strings"
)

// 查询中的章节引用, 数字可以是阿拉伯数字或英文 one..ten
var sectionQueryRe = regexp.MustCompile(`(?i)(chapter|section)\s*(\d+|one|two|three|four|five|six|seven|eight|nine|ten)`)

// 文档正文中的章节标记
var sectionMarkerRe = regexp.MustCompile(`(?i)(chapter|section)\s*(\d+)`)

var numberWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
}

// ExtractSection 从全文中定位查询所指的章节正文。
// 查询不含章节引用, 或正文中找不到对应标记时, 返回 ok=false。
// 章节编号按整数比较, "chapter 1" 不会误匹配 "Chapter 10"。
func ExtractSection(fullText, query string) (string, bool) {
	m := sectionQueryRe.FindStringSubmatch(query)
	if m == nil {
		return "", false
	}

	sectionType := strings.ToLower(m[1])
	want, err := parseSectionNumber(m[2])
	if err != nil {
		return "", false
	}

	start := -1
	end := len(fullText)
	for _, loc := range sectionMarkerRe.FindAllStringSubmatchIndex(fullText, -1) {
		markerType := strings.ToLower(fullText[loc[2]:loc[3]])
		if markerType != sectionType {
			continue
		}
		num, err := strconv.Atoi(fullText[loc[4]:loc[5]])
		if err != nil {
			continue
		}
		if start < 0 {
			if num == want {
				start = loc[1]
			}
			continue
		}
		// 已找到起点, 下一个同类型编号 want+1 的标记就是终点
		if num == want+1 {
			end = loc[0]
			break
		}
	}

	if start < 0 {
		return "", false
	}

	segment := strings.TrimLeft(fullText[start:end], ": \t")
	segment = strings.TrimSpace(segment)
	if segment == "" {
		return "", false
	}
	return segment, true
}

func parseSectionNumber(raw string) (int, error) {
	raw = strings.ToLower(raw)
	if n, ok := numberWords[raw]; ok {
		return n, nil
	}
	return strconv.Atoi(raw)
}
