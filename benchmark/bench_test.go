package benchmark

import (
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lsmkit/arenaskl/internal"
	"github.com/lsmkit/arenaskl/memtable"
)

func GetTestKey(i int) []byte {
	return []byte(fmt.Sprintf("arenaskl-test-key-%09d", i))
}

func RandomValue(n int) []byte {
	const letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	b := make([]byte, n)
	for i := range b {
		b[i] = letters[rand.Intn(len(letters))]
	}
	return b
}

func TestConcurrentPut(t *testing.T) {
	opts := memtable.DefaultOptions()
	opts.Capacity = 256 * memtable.MB
	m, err := memtable.New(opts)
	if err != nil {
		panic(err)
	}

	const writers = 8
	const perWriter = 50000
	putNum := writers * perWriter
	dataSize := float64(putNum*(28+100)) / float64(1024*1024) // MB

	var version atomic.Uint64
	startTime := time.Now()
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			value := RandomValue(100)
			for i := 0; i < perWriter; i++ {
				err := m.Add(version.Add(1), internal.KTypeValue, GetTestKey(w*perWriter+i), value)
				if err != nil {
					panic(err)
				}
			}
		}(w)
	}
	wg.Wait()
	elapsedTime := time.Since(startTime) / time.Millisecond // ms
	if elapsedTime == 0 {
		elapsedTime = 1
	}

	throughput := int64(float64(putNum) / float64(elapsedTime) * 1000.0) // QPS
	latency := float64(elapsedTime*1000) / float64(putNum)
	writeSpeed := dataSize / (float64(elapsedTime) / 1000.0)

	fmt.Printf("Benchmark Entries: %d, Writers: %d\n", putNum, writers)
	fmt.Printf("Throughput: %d QPS\n", throughput)
	fmt.Printf("Latency: %.3f micros/op; %.1f MB/s\n", latency, writeSpeed)
}

func TestRandomGet(t *testing.T) {
	opts := memtable.DefaultOptions()
	opts.Capacity = 64 * memtable.MB
	m, err := memtable.New(opts)
	if err != nil {
		panic(err)
	}

	putNum := 100000
	for i := 0; i < putNum; i++ {
		if err := m.Add(uint64(i+1), internal.KTypeValue, GetTestKey(i), RandomValue(100)); err != nil {
			panic(err)
		}
	}

	getNum := 100000
	startTime := time.Now()
	for i := 0; i < getNum; i++ {
		if _, ok := m.Get(GetTestKey(rand.Intn(putNum)), internal.MaxVersion); !ok {
			panic("key not found")
		}
	}
	elapsedTime := time.Since(startTime) / time.Millisecond
	if elapsedTime == 0 {
		elapsedTime = 1
	}

	throughput := int64(float64(getNum) / float64(elapsedTime) * 1000.0)
	fmt.Printf("Benchmark Entries: %d\n", getNum)
	fmt.Printf("Throughput: %d QPS\n", throughput)
}
