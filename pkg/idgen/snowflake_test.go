package idgen

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateBusinessNumbers(t *testing.T) {
	Init(1)

	t.Run("Prefixes", func(t *testing.T) {
		assert.True(t, strings.HasPrefix(GenerateOrderNo(), "ORD"))
		assert.True(t, strings.HasPrefix(GenerateEarningNo(), "ERN"))
		assert.True(t, strings.HasPrefix(GeneratePayoutNo(), "PYO"))
	})

	t.Run("Length", func(t *testing.T) {
		// 前缀3位 + 时间戳14位 + 序列8位
		assert.Len(t, GenerateOrderNo(), 25)
		assert.Len(t, GenerateEarningNo(), 25)
		assert.Len(t, GeneratePayoutNo(), 25)
	})

	t.Run("UniqueUnderConcurrency", func(t *testing.T) {
		const goroutines = 10
		const perGoroutine = 100

		var mu sync.Mutex
		seen := make(map[string]struct{}, goroutines*perGoroutine)
		var wg sync.WaitGroup

		for i := 0; i < goroutines; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				local := make([]string, 0, perGoroutine)
				for j := 0; j < perGoroutine; j++ {
					local = append(local, GeneratePayoutNo())
				}
				mu.Lock()
				for _, no := range local {
					seen[no] = struct{}{}
				}
				mu.Unlock()
			}()
		}
		wg.Wait()

		assert.Len(t, seen, goroutines*perGoroutine)
	})
}
