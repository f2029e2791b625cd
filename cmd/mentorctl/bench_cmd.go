package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/argonaut-labs/mentorcore/internal/mentor"
)

type benchResult struct {
	Name    string `json:"name"`
	Latency string `json:"latency_ms"`
	Detail  string `json:"detail,omitempty"`
}

func benchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bench",
		Short: "Load-test an in-process core",
		Long:  "Measures cold-start, static-route, and cache-hit latency against an in-process Mentor Response Core. Does not start a server.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench()
		},
	}
}

func runBench() error {
	fmt.Println("Mentor Response Core Benchmark")
	fmt.Println("===============================")
	fmt.Println()

	var results []benchResult

	t0 := time.Now()
	core, err := buildCore()
	coldStart := time.Since(t0)
	if err != nil {
		return fmt.Errorf("build core: %w", err)
	}
	results = append(results, benchResult{
		Name:    "Core construction (cold start)",
		Latency: fmt.Sprintf("%.1f", float64(coldStart.Microseconds())/1000.0),
	})
	printBenchLine(results[len(results)-1])

	ctx := context.Background()
	deadline := time.Now().Add(10 * time.Second)

	makeReq := func(query string) mentor.Request {
		return mentor.Request{
			Query:    query,
			CallerID: "bench",
			Session:  uuid.New(),
			Deadline: deadline,
		}
	}

	// 1. Static route, cold: first lookup of a question likely to be
	// confident enough to route STATIC outright.
	t0 = time.Now()
	resp, err := core.Answer(ctx, makeReq("what is the architecture of this project"))
	staticLatency := time.Since(t0)
	if err != nil {
		results = append(results, benchResult{Name: "Static route", Latency: "FAILED", Detail: err.Error()})
	} else {
		results = append(results, benchResult{
			Name:    "Static route",
			Latency: fmt.Sprintf("%.2f", float64(staticLatency.Microseconds())/1000.0),
			Detail:  fmt.Sprintf("route=%s reason=%s", resp.Route, resp.Reason),
		})
	}
	printBenchLine(results[len(results)-1])

	// 2. Same query again: exercises the response cache's hit path when
	// the first call fell through to generation.
	t0 = time.Now()
	resp2, err := core.Answer(ctx, makeReq("what is the architecture of this project"))
	repeatLatency := time.Since(t0)
	if err != nil {
		results = append(results, benchResult{Name: "Repeat query", Latency: "FAILED", Detail: err.Error()})
	} else {
		results = append(results, benchResult{
			Name:    "Repeat query",
			Latency: fmt.Sprintf("%.2f", float64(repeatLatency.Microseconds())/1000.0),
			Detail:  fmt.Sprintf("cache_hit=%t", resp2.CacheHit),
		})
	}
	printBenchLine(results[len(results)-1])

	// 3. Rate limiter overhead under a burst from one caller.
	t0 = time.Now()
	const burst = 20
	throttled := 0
	for i := 0; i < burst; i++ {
		if _, err := core.Answer(ctx, makeReq("how should I structure error handling")); err != nil {
			if merr, ok := err.(*mentor.MentorError); ok && merr.Kind == mentor.ErrThrottled {
				throttled++
			}
		}
	}
	burstLatency := time.Since(t0)
	results = append(results, benchResult{
		Name:    fmt.Sprintf("Burst of %d", burst),
		Latency: fmt.Sprintf("%.1f", float64(burstLatency.Microseconds())/1000.0),
		Detail:  fmt.Sprintf("%d throttled", throttled),
	})
	printBenchLine(results[len(results)-1])

	fmt.Println()
	data, _ := json.MarshalIndent(results, "", "  ")
	fmt.Println(string(data))
	return nil
}

func printBenchLine(r benchResult) {
	fmt.Printf("  %-34s %8s ms  %s\n", r.Name, r.Latency, r.Detail)
}
