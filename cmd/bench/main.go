// Command bench runs a synthetic memoization workload against the cache and
// exposes optional pprof/Prometheus endpoints.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof/* on DefaultServeMux
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/memocache/memocache/cache"
	pmet "github.com/memocache/memocache/metrics/prom"
)

func main() {
	// ---- Flags ----
	var (
		capacity = flag.Int("cap", 100_000, "cache capacity (entries)")
		ttl      = flag.Duration("ttl", time.Minute, "default TTL for writes (0 = no expiration)")
		sweep    = flag.Duration("sweep", 10*time.Second, "background sweep interval")

		workers  = flag.Int("workers", 2*runtime.GOMAXPROCS(0), "number of worker goroutines")
		duration = flag.Duration("duration", 10*time.Second, "benchmark duration")
		readPct  = flag.Int("reads", 80, "read percentage [0..100]")
		tagPct   = flag.Int("tagged", 20, "percentage of writes that carry tags [0..100]")
		invalPct = flag.Int("invalidate", 1, "percentage of ops that invalidate a tag group [0..100]")
		tagCount = flag.Int("tags", 64, "number of distinct tag groups")

		keys    = flag.Int("keys", 1_000_000, "keyspace size")
		zipfS   = flag.Float64("zipf_s", 1.1, "Zipf s > 1 (skew)")
		zipfV   = flag.Float64("zipf_v", 1.0, "Zipf v")
		seed    = flag.Int64("seed", time.Now().UnixNano(), "random seed")
		preload = flag.Int("preload", 0, "preload entries (0 = cap/2)")

		pprofAddr   = flag.String("pprof", "", "serve pprof at addr (e.g. :6060); empty = disabled")
		metricsAddr = flag.String("http", ":8080", "serve Prometheus metrics at addr")
	)
	flag.Parse()

	// ---- pprof server (on DefaultServeMux) ----
	if *pprofAddr != "" {
		go func() {
			log.Printf("pprof: serving at %s", *pprofAddr)
			log.Println(http.ListenAndServe(*pprofAddr, nil))
		}()
	}

	// ---- Prometheus metrics (on DefaultServeMux) ----
	metrics := pmet.New(nil, "memocache", "bench", nil)
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		log.Printf("metrics: serving at %s", *metricsAddr)
		log.Println(http.ListenAndServe(*metricsAddr, nil))
	}()

	// ---- Build cache ----
	c := cache.New[string, string](cache.Options[string, string]{
		Capacity:      *capacity,
		DefaultTTL:    *ttl,
		SweepInterval: *sweep,
		Metrics:       metrics,
	})
	defer func() { _ = c.Close() }()

	// ---- Preload half capacity to get a realistic hit-rate ----
	pl := *preload
	if pl == 0 {
		pl = *capacity / 2
	}
	for i := 0; i < pl; i++ {
		k := "k:" + strconv.Itoa(i)
		c.Set(k, "v"+strconv.Itoa(i))
	}

	// ---- Snapshot flags for goroutines ----
	readPctVal := *readPct
	tagPctVal := *tagPct
	invalPctVal := *invalPct
	tagCountVal := *tagCount
	if tagCountVal < 1 {
		tagCountVal = 1
	}
	keysMax := uint64(*keys - 1)
	seedBase := *seed
	zipfSVal := *zipfS
	zipfVVal := *zipfV
	workersN := *workers
	if workersN <= 0 {
		workersN = 1
	}

	// ---- Load generation ----
	var reads, writes, invals, hits, misses, total uint64
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(workersN)
	for w := 0; w < workersN; w++ {
		go func(id int) {
			defer wg.Done()

			// Each worker gets its own RNG + Zipf (rand.Rand is NOT goroutine-safe).
			localR := rand.New(rand.NewSource(seedBase + int64(id)*9973))
			localZipf := rand.NewZipf(localR, zipfSVal, zipfVVal, keysMax)

			keyByZipf := func() string {
				return "k:" + strconv.FormatUint(localZipf.Uint64(), 10)
			}

			for {
				select {
				case <-ctx.Done():
					return
				default:
				}

				atomic.AddUint64(&total, 1)
				roll := int(localR.Int31n(100))
				switch {
				case roll < invalPctVal:
					atomic.AddUint64(&invals, 1)
					c.InvalidateByTags("t:" + strconv.Itoa(localR.Intn(tagCountVal)))
				case roll < invalPctVal+readPctVal:
					atomic.AddUint64(&reads, 1)
					if _, ok := c.Get(keyByZipf()); ok {
						atomic.AddUint64(&hits, 1)
					} else {
						atomic.AddUint64(&misses, 1)
					}
				default:
					atomic.AddUint64(&writes, 1)
					k := keyByZipf()
					v := "v" + strconv.Itoa(localR.Int())
					if int(localR.Int31n(100)) < tagPctVal {
						c.SetTagged(k, v, 0, "t:"+strconv.Itoa(localR.Intn(tagCountVal)))
					} else {
						c.Set(k, v)
					}
				}
			}
		}(w)
	}
	wg.Wait()
	elapsed := time.Since(start)

	// ---- Report ----
	ops := atomic.LoadUint64(&total)
	readsN := atomic.LoadUint64(&reads)
	writesN := atomic.LoadUint64(&writes)
	invalsN := atomic.LoadUint64(&invals)
	hitsN := atomic.LoadUint64(&hits)
	missesN := atomic.LoadUint64(&misses)

	hitRatePct := 0.0
	if readsN > 0 {
		hitRatePct = float64(hitsN) / float64(readsN) * 100
	}

	fmt.Printf("cap=%d ttl=%v sweep=%v workers=%d keys=%d dur=%v seed=%d\n",
		*capacity, *ttl, *sweep, workersN, *keys, elapsed, seedBase)
	fmt.Printf("ops=%d (%.0f ops/s)  reads=%d  writes=%d  invalidations=%d\n",
		ops, float64(ops)/elapsed.Seconds(), readsN, writesN, invalsN)
	fmt.Printf("hits=%d  misses=%d  hit-rate=%.2f%%\n", hitsN, missesN, hitRatePct)

	st := c.Stats()
	fmt.Printf("store: hits=%d misses=%d hitRate=%.2f%% size=%d\n",
		st.Hits, st.Misses, st.HitRate, st.Size)
}
