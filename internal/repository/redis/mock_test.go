package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	r "github.com/redis/go-redis/v9"
)

type mockCmdable struct {
	mu      sync.Mutex
	data    map[string]string
	ttls    map[string]time.Duration
	deleted []string
	failAll error
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{
		data: make(map[string]string),
		ttls: make(map[string]time.Duration),
	}
}

func (m *mockCmdable) Ping(context.Context) *r.StatusCmd {
	if m.failAll != nil {
		return r.NewStatusResult("", m.failAll)
	}
	return r.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Get(_ context.Context, key string) *r.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return r.NewStringResult("", m.failAll)
	}
	v, ok := m.data[key]
	if !ok {
		return r.NewStringResult("", r.Nil)
	}
	return r.NewStringResult(v, nil)
}

func (m *mockCmdable) Set(_ context.Context, key string, value any, expiration time.Duration) *r.StatusCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return r.NewStatusResult("", m.failAll)
	}
	switch v := value.(type) {
	case []byte:
		m.data[key] = string(v)
	default:
		m.data[key] = fmt.Sprint(v)
	}
	m.ttls[key] = expiration
	return r.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Del(_ context.Context, keys ...string) *r.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return r.NewIntResult(0, m.failAll)
	}
	for _, key := range keys {
		delete(m.data, key)
		m.deleted = append(m.deleted, key)
	}
	return r.NewIntResult(int64(len(keys)), nil)
}

func (m *mockCmdable) MGet(_ context.Context, keys ...string) *r.SliceCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return r.NewSliceResult(nil, m.failAll)
	}
	vals := make([]interface{}, len(keys))
	for i, key := range keys {
		if v, ok := m.data[key]; ok {
			vals[i] = v
		}
	}
	return r.NewSliceResult(vals, nil)
}

func (m *mockCmdable) Pipelined(ctx context.Context, fn func(r.Pipeliner) error) ([]r.Cmder, error) {
	if m.failAll != nil {
		return nil, m.failAll
	}
	pipe := &mockPipeliner{parent: m}
	if err := fn(pipe); err != nil {
		return nil, err
	}
	return pipe.cmds, nil
}

// mockPipeliner реализует только Set, остальные методы не вызываются репозиториями.
type mockPipeliner struct {
	r.Pipeliner
	parent *mockCmdable
	cmds   []r.Cmder
}

func (p *mockPipeliner) Set(ctx context.Context, key string, value any, expiration time.Duration) *r.StatusCmd {
	cmd := p.parent.Set(ctx, key, value, expiration)
	p.cmds = append(p.cmds, cmd)
	return cmd
}

func (m *mockCmdable) raw(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *mockCmdable) put(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
}

var errConnRefused = errors.New("dial tcp 127.0.0.1:6379: connect: connection refused")
