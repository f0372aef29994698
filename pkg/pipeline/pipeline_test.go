package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wordflowlab/voicedoc/pkg/provider"
	"github.com/wordflowlab/voicedoc/pkg/types"
)

// stubProvider 记录收到的调用并返回预设响应
type stubProvider struct {
	streamText string
	streamErr  error

	completeText string
	completeErr  error

	lastStreamMessages   []types.Message
	lastStreamOpts       *provider.Options
	lastCompleteMessages []types.Message
	completeCalls        int
}

func (s *stubProvider) Complete(_ context.Context, messages []types.Message, _ *provider.Options) (*provider.CompleteResponse, error) {
	s.completeCalls++
	s.lastCompleteMessages = messages
	if s.completeErr != nil {
		return nil, s.completeErr
	}
	return &provider.CompleteResponse{
		Text:  s.completeText,
		Usage: types.TokenUsage{PromptTokens: 20, CompletionTokens: 10},
	}, nil
}

func (s *stubProvider) Stream(_ context.Context, messages []types.Message, opts *provider.Options) (<-chan provider.StreamChunk, error) {
	s.lastStreamMessages = messages
	s.lastStreamOpts = opts

	ch := make(chan provider.StreamChunk, 8)
	go func() {
		defer close(ch)
		if s.streamErr != nil {
			ch <- provider.StreamChunk{
				Type:  provider.ChunkTypeError,
				Error: &provider.StreamError{Code: "upstream_error", Message: s.streamErr.Error()},
			}
			return
		}
		for _, word := range strings.SplitAfter(s.streamText, " ") {
			ch <- provider.StreamChunk{Type: provider.ChunkTypeText, TextDelta: word}
		}
		ch <- provider.StreamChunk{
			Type:  provider.ChunkTypeUsage,
			Usage: &types.TokenUsage{PromptTokens: 100, CompletionTokens: 50},
		}
		ch <- provider.StreamChunk{Type: provider.ChunkTypeDone}
	}()
	return ch, nil
}

func (s *stubProvider) Close() error { return nil }

func collectEvents(t *testing.T, ch <-chan Event) []Event {
	t.Helper()
	var events []Event
	for ev := range ch {
		events = append(events, ev)
	}
	return events
}

func TestRefusalDeterministicWhenContextLacksAnswer(t *testing.T) {
	stub := &stubProvider{streamText: RefusalSentence}
	p := New(stub, nil)

	for i := 0; i < 2; i++ {
		events := collectEvents(t, p.Stream(context.Background(), types.GenerateRequest{
			Query:   "what is the warranty period",
			Context: "",
		}, nil))

		require.Len(t, events, 1)
		require.NoError(t, events[0].Err)
		assert.Equal(t, RefusalSentence, events[0].Text)
	}
}

func TestStandardModeStripsLeakedAnnotations(t *testing.T) {
	stub := &stubProvider{streamText: "The deadline is (pauses) Friday [whispers] at noon."}
	p := New(stub, nil)

	events := collectEvents(t, p.Stream(context.Background(), types.GenerateRequest{
		Query: "when is the deadline",
	}, nil))

	require.Len(t, events, 1)
	assert.NotContains(t, events[0].Text, "(")
	assert.NotContains(t, events[0].Text, "[")
	assert.Contains(t, events[0].Text, "Friday")
	// 标准模式不触发 Call 2
	assert.Zero(t, stub.completeCalls)
}

func TestExpressiveModePreservesWords(t *testing.T) {
	raw := "The results are promising."
	stub := &stubProvider{
		streamText:   raw,
		completeText: "[calm] The results are [excited] promising. (with feeling)",
	}
	p := New(stub, nil)

	events := collectEvents(t, p.Stream(context.Background(), types.GenerateRequest{
		Query:          "summarize the findings",
		Persona:        types.PersonaAcademic,
		ExpressiveMode: true,
	}, nil))

	require.Len(t, events, 1)
	final := events[0].Text

	// 圆括号旁白被清理, 方括号标签保留
	assert.NotContains(t, final, "(")
	assert.Contains(t, final, "[calm]")

	// 去掉标签后词序列与原文一致
	stripped := StripAnnotations(final)
	assert.Equal(t, strings.Fields(raw), strings.Fields(stripped))

	// Call 2 的历史里带着学术画像的 few-shot 示例
	require.Equal(t, 1, stub.completeCalls)
	require.GreaterOrEqual(t, len(stub.lastCompleteMessages), 3)
	assert.Contains(t, stub.lastCompleteMessages[0].Text, "hypothesis")
}

func TestEmptyRawYieldsSentinel(t *testing.T) {
	stub := &stubProvider{streamText: "   "}
	p := New(stub, nil)

	events := collectEvents(t, p.Stream(context.Background(), types.GenerateRequest{
		Query:          "anything",
		ExpressiveMode: true,
	}, nil))

	require.Len(t, events, 1)
	assert.Equal(t, NoResponseSentinel, events[0].Text)
	// 空响应不触发 Call 2
	assert.Zero(t, stub.completeCalls)
}

func TestCall1FailureIsFatal(t *testing.T) {
	stub := &stubProvider{streamErr: errors.New("quota exceeded")}
	p := New(stub, nil)

	events := collectEvents(t, p.Stream(context.Background(), types.GenerateRequest{
		Query: "anything",
	}, nil))

	require.Len(t, events, 2)
	assert.True(t, strings.HasPrefix(events[0].Text, "\n\nERROR:"))

	var genErr *GenerationError
	require.ErrorAs(t, events[1].Err, &genErr)
	assert.Equal(t, StageGrounding, genErr.Stage)
}

func TestCall2FailureIsFatal(t *testing.T) {
	stub := &stubProvider{
		streamText:  "A perfectly good answer.",
		completeErr: errors.New("tagging model unavailable"),
	}
	p := New(stub, nil)

	events := collectEvents(t, p.Stream(context.Background(), types.GenerateRequest{
		Query:          "anything",
		ExpressiveMode: true,
	}, nil))

	require.Len(t, events, 2)

	var genErr *GenerationError
	require.ErrorAs(t, events[1].Err, &genErr)
	assert.Equal(t, StageTagging, genErr.Stage)
	// 不回落到未标注回答
	assert.NotContains(t, events[0].Text, "perfectly good answer")
}

func TestNarrationSwitchesToBeginReading(t *testing.T) {
	doc := "Chapter 1: first chapter body. Chapter 2: second chapter body."
	stub := &stubProvider{streamText: "first chapter body."}
	p := New(stub, nil)

	events := collectEvents(t, p.Stream(context.Background(), types.GenerateRequest{
		Query:       "read chapter 1",
		Context:     doc,
		IsNarration: true,
	}, nil))

	require.Len(t, events, 1)

	// 出站消息是固定朗读指令而不是用户原话
	last := stub.lastStreamMessages[len(stub.lastStreamMessages)-1]
	assert.Equal(t, beginReadingMessage, last.Text)

	// 系统提示词只包含第一章, 不含第二章
	assert.Contains(t, stub.lastStreamOpts.System, "first chapter body")
	assert.NotContains(t, stub.lastStreamOpts.System, "second chapter body")
	assert.Contains(t, stub.lastStreamOpts.System, "word-for-word")
}

func TestNarrationWithoutSectionKeepsQuery(t *testing.T) {
	stub := &stubProvider{streamText: "whole document text"}
	p := New(stub, nil)

	collectEvents(t, p.Stream(context.Background(), types.GenerateRequest{
		Query:       "please narrate the whole thing",
		Context:     "No markers here at all.",
		IsNarration: true,
	}, nil))

	last := stub.lastStreamMessages[len(stub.lastStreamMessages)-1]
	assert.Equal(t, "please narrate the whole thing", last.Text)
	assert.Contains(t, stub.lastStreamOpts.System, "No markers here at all.")
}

func TestHistoryRolesNormalized(t *testing.T) {
	stub := &stubProvider{streamText: "ok"}
	p := New(stub, nil)

	collectEvents(t, p.Stream(context.Background(), types.GenerateRequest{
		History: []types.Message{
			{Role: "user", Text: "hi"},
			{Role: "assistant", Text: "hello"},
		},
		Query: "follow up",
	}, nil))

	require.Len(t, stub.lastStreamMessages, 3)
	assert.Equal(t, types.RoleModel, stub.lastStreamMessages[1].Role)
	assert.Equal(t, types.RoleUser, stub.lastStreamMessages[2].Role)
}
