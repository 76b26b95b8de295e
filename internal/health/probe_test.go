package health

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type staticChecker struct {
	result CheckResult
	calls  *atomic.Int32
}

func (s staticChecker) Check(ctx context.Context) CheckResult {
	if s.calls != nil {
		s.calls.Add(1)
	}
	return s.result
}

func TestProbeRunnerAggregates(t *testing.T) {
	cases := []struct {
		name     string
		checkers []Checker
		want     bool
	}{
		{name: "no checkers", want: true},
		{name: "all healthy", checkers: []Checker{
			staticChecker{result: CheckResult{Name: "a", Healthy: true}},
			staticChecker{result: CheckResult{Name: "b", Healthy: true}},
		}, want: true},
		{name: "one failing", checkers: []Checker{
			staticChecker{result: CheckResult{Name: "a", Healthy: true}},
			staticChecker{result: CheckResult{Name: "b", Error: "down"}},
		}, want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ready, results := NewProbeRunner(time.Second, 0, tc.checkers...).Ready(context.Background())
			if ready != tc.want {
				t.Fatalf("expected ready=%v, got %v (%+v)", tc.want, ready, results)
			}
			if len(results) != len(tc.checkers) {
				t.Fatalf("expected %d results, got %d", len(tc.checkers), len(results))
			}
		})
	}
}

func TestProbeRunnerCachesWithinTTL(t *testing.T) {
	var calls atomic.Int32
	p := NewProbeRunner(time.Second, time.Minute, staticChecker{result: CheckResult{Name: "a", Healthy: true}, calls: &calls})
	now := time.Unix(1_700_000_000, 0)
	p.now = func() time.Time { return now }

	p.Ready(context.Background())
	p.Ready(context.Background())
	if calls.Load() != 1 {
		t.Fatalf("expected cached result, checker ran %d times", calls.Load())
	}
	now = now.Add(2 * time.Minute)
	p.Ready(context.Background())
	if calls.Load() != 2 {
		t.Fatalf("expected re-check after ttl, checker ran %d times", calls.Load())
	}
}

func TestCheckerFuncReportsError(t *testing.T) {
	res := CheckerFunc{Name: "x", Fn: func(context.Context) error { return errors.New("boom") }}.Check(context.Background())
	if res.Healthy || res.Error != "boom" || res.Name != "x" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestDBAndRedisCheckers(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:health_probe?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if res := DBChecker(db).Check(context.Background()); !res.Healthy {
		t.Fatalf("expected db healthy, got %+v", res)
	}

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	if res := RedisChecker(client).Check(context.Background()); !res.Healthy {
		t.Fatalf("expected redis healthy, got %+v", res)
	}
	srv.Close()
	if res := RedisChecker(client).Check(context.Background()); res.Healthy {
		t.Fatal("expected redis unhealthy after server close")
	}
}
