package telemetry

import (
	"fmt"
	"net"
	"sort"
	"strings"
	"sync"
)

// StatsdSink 通过 UDP 以 DogStatsD 行协议上报指标。
// 发送是尽力而为的: 任何写入失败都会被静默吞掉, 绝不阻塞调用方。
type StatsdSink struct {
	mu        sync.Mutex
	conn      net.Conn
	namespace string
	baseTags  []string

	// 本地镜像, 用于 Snapshot 查询
	local *SimpleMetrics
}

// StatsdConfig StatsD sink 配置
type StatsdConfig struct {
	// Addr UDP 目标地址, 例如 "127.0.0.1:8125"
	Addr string
	// Namespace 指标名前缀, 例如 "voicedoc"
	Namespace string
	// Tags 附加到每条指标的全局标签
	Tags map[string]string
}

// NewStatsdSink 创建 StatsD sink。连接失败时返回错误,
// 调用方通常回退到 SimpleMetrics。
func NewStatsdSink(cfg StatsdConfig) (*StatsdSink, error) {
	conn, err := net.Dial("udp", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("statsd dial %s: %w", cfg.Addr, err)
	}

	return &StatsdSink{
		conn:      conn,
		namespace: cfg.Namespace,
		baseTags:  formatTags(cfg.Tags),
		local:     NewSimpleMetrics(),
	}, nil
}

func (s *StatsdSink) IncrementCounter(name string, value int64, labels map[string]string) {
	s.local.IncrementCounter(name, value, labels)
	s.send(name, fmt.Sprintf("%d", value), "c", labels)
}

func (s *StatsdSink) SetGauge(name string, value float64, labels map[string]string) {
	s.local.SetGauge(name, value, labels)
	s.send(name, formatFloat(value), "g", labels)
}

func (s *StatsdSink) RecordHistogram(name string, value float64, labels map[string]string) {
	s.local.RecordHistogram(name, value, labels)
	s.send(name, formatFloat(value), "h", labels)
}

func (s *StatsdSink) Snapshot() MetricsSnapshot {
	return s.local.Snapshot()
}

// Close 关闭底层连接。
func (s *StatsdSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

// send 构造一条 DogStatsD 行: name:value|type|#tag:val,tag:val
func (s *StatsdSink) send(name, value, typ string, labels map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return
	}

	var b strings.Builder
	if s.namespace != "" {
		b.WriteString(s.namespace)
		b.WriteByte('.')
	}
	b.WriteString(name)
	b.WriteByte(':')
	b.WriteString(value)
	b.WriteByte('|')
	b.WriteString(typ)

	tags := append(append([]string(nil), s.baseTags...), formatTags(labels)...)
	if len(tags) > 0 {
		b.WriteString("|#")
		b.WriteString(strings.Join(tags, ","))
	}

	// 写失败无所谓, UDP 本来就不保证送达
	_, _ = s.conn.Write([]byte(b.String()))
}

func formatTags(labels map[string]string) []string {
	if len(labels) == 0 {
		return nil
	}
	tags := make([]string, 0, len(labels))
	for k, v := range labels {
		tags = append(tags, k+":"+v)
	}
	sort.Strings(tags)
	return tags
}

func formatFloat(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.6f", v), "0"), ".")
}
