package service

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func TestGenerateInviteCode_Format(t *testing.T) {
	seen := make(map[string]bool)
	counts := make(map[rune]int)
	for i := 0; i < 2000; i++ {
		code, err := generateInviteCode()
		if err != nil {
			t.Fatalf("生成失败: %v", err)
		}
		if !isValidInviteCode(code) {
			t.Fatalf("格式错误: %q", code)
		}
		seen[code] = true
		for _, c := range code {
			counts[c]++
		}
	}
	// 36^8 空间下 2000 次几乎不可能重复
	if len(seen) < 1999 {
		t.Errorf("重复过多，唯一数=%d", len(seen))
	}
	// 16000 个字符，每个字符期望约 444 次
	for _, c := range inviteCodeAlphabet {
		if counts[c] < 250 {
			t.Errorf("字符 %c 出现次数过少: %d", c, counts[c])
		}
	}
}

func TestIsValidInviteCode(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"ABCD1234", true},
		{"00000000", true},
		{"ZZZZZZZZ", true},
		{"abcd1234", false},
		{"ABCD123", false},
		{"ABCD12345", false},
		{"ABCD-234", false},
		{"", false},
		{strings.Repeat("Ä", 4), false},
	}
	for _, tt := range tests {
		if got := isValidInviteCode(tt.code); got != tt.want {
			t.Errorf("isValidInviteCode(%q) 期望=%v，实际=%v", tt.code, tt.want, got)
		}
	}
}

func TestKeyLock_SerializesSameKey(t *testing.T) {
	l := newKeyLock()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		active  int
		maxSeen int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.Lock("team-1")
			defer unlock()

			mu.Lock()
			active++
			if active > maxSeen {
				maxSeen = active
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()

	if maxSeen != 1 {
		t.Errorf("同一 key 期望串行执行，最大并发=%d", maxSeen)
	}
	if l.size() != 0 {
		t.Errorf("锁应全部回收，剩余=%d", l.size())
	}
}

func TestKeyLock_IndependentKeys(t *testing.T) {
	l := newKeyLock()
	unlockA := l.Lock("a")

	done := make(chan struct{})
	go func() {
		unlockB := l.Lock("b")
		unlockB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("不同 key 之间不应互相阻塞")
	}
	if l.size() != 1 {
		t.Errorf("期望仅剩 1 把锁，实际=%d", l.size())
	}
	unlockA()
	if l.size() != 0 {
		t.Errorf("锁应全部回收，剩余=%d", l.size())
	}
}
