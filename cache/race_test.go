package cache

import (
	"math/rand"
	"runtime"
	"strconv"
	"sync"
	"testing"
	"time"
)

// A mixed workload of concurrent Set/Get/Has/SetTagged/InvalidateByTags/
// Remove on random keys, with the background sweep running.
// Should pass under `-race` without detector reports.
func TestRace_Basic(t *testing.T) {
	c := New[string, []byte](Options[string, []byte]{
		Capacity:      8_192,
		SweepInterval: 10 * time.Millisecond,
	})
	t.Cleanup(func() { _ = c.Close() })

	workers := 4 * runtime.GOMAXPROCS(0)
	keyspace := 50_000
	deadline := time.Now().Add(2 * time.Second)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(id int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(id)*9973))
			for time.Now().Before(deadline) {
				k := "k:" + strconv.Itoa(r.Intn(keyspace))
				switch r.Intn(100) {
				case 0, 1, 2, 3, 4: // ~5% — Remove
					c.Remove(k)
				case 5, 6, 7, 8, 9: // ~5% — SetWithTTL
					c.SetWithTTL(k, []byte("x"), time.Duration(10+r.Intn(20))*time.Millisecond)
				case 10, 11, 12, 13, 14: // ~5% — SetTagged
					c.SetTagged(k, []byte("x"), 0, "t:"+strconv.Itoa(r.Intn(8)))
				case 15: // ~1% — tag invalidation
					c.InvalidateByTags("t:" + strconv.Itoa(r.Intn(8)))
				case 16, 17: // ~2% — stats snapshot
					c.Stats()
				case 18, 19, 20, 21, 22, 23, 24, 25, 26, 27: // ~10% — Set
					c.Set(k, []byte("x"))
				case 28, 29, 30, 31, 32: // ~5% — Has
					c.Has(k)
				default: // ~67% — Get
					c.Get(k)
				}
			}
		}(w)
	}
	wg.Wait()

	if n := c.Len(); n > 8_192 {
		t.Fatalf("capacity invariant violated: Len=%d", n)
	}
}

// Concurrent Close racing with readers and writers must neither panic nor
// leave the sweep running.
func TestRace_CloseDuringTraffic(t *testing.T) {
	c := New[string, int](Options[string, int]{
		Capacity:      1024,
		SweepInterval: time.Millisecond,
	})

	var wg sync.WaitGroup
	start := make(chan struct{})
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			<-start
			for i := 0; i < 1_000; i++ {
				k := "k:" + strconv.Itoa(i%64)
				c.Set(k, i)
				c.Get(k)
				c.Has(k)
			}
		}(w)
	}

	close(start)
	time.Sleep(time.Millisecond)
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	wg.Wait()

	if c.Len() != 0 {
		t.Fatalf("state must be released after Close, Len=%d", c.Len())
	}
}
