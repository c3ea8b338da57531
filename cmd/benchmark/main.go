package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"time"

	"github.com/hookparty/hookparty/hooks"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
)

var (
	ww    = []int{1, 10, 100, 1_000}
	hh    = []int{1, 10, 100}
	iters = 100
)

func main() {
	flag.Parse()

	f, err := os.Create("default.pgo")
	if err != nil {
		log.Fatal(err)
	}
	pprof.StartCPUProfile(f)
	defer pprof.StopCPUProfile()

	log.Printf("warming up")

	benchmarkReactions()
	benchmarkBatching()
}

// benchmarkReactions measures a single atom write propagating through a w x h
// grid of chained reactions.
func benchmarkReactions() {
	tbl := table.NewWriter()
	tbl.SetTitle("Reaction Propagation")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max"})

	for _, w := range ww {
		for _, h := range hh {
			tach := tachymeter.New(&tachymeter.Config{Size: iters})

			e := hooks.NewEngine()
			src := hooks.NewAtom(e, "src", func() int { return 1 })
			last := make([]hooks.Reaction[int], w)
			for i := 0; i < w; i++ {
				prev := hooks.NewReaction(e, fmt.Sprintf("rx-%d-0", i), func(rx *hooks.Rx) int {
					return src.Observe(rx) + 1
				})
				for j := 1; j < h; j++ {
					p := prev
					prev = hooks.NewReaction(e, fmt.Sprintf("rx-%d-%d", i, j), func(rx *hooks.Rx) int {
						return p.Observe(rx) + 1
					})
				}
				last[i] = prev
			}

			for i := 0; i < iters; i++ {
				start := time.Now()
				src.Set(i)
				for _, r := range last {
					if r.GetUntracked() != i+h {
						log.Panicf("expected %d, got %d", i+h, r.GetUntracked())
					}
				}
				tach.AddTime(time.Since(start))
			}

			m := tach.Calc()
			tbl.AppendRow(table.Row{
				fmt.Sprintf("propagate %dx%d", w, h),
				m.Time.Avg, m.Time.Min, m.Time.P75, m.Time.P99, m.Time.Max,
			})
		}
	}
	tbl.Render()
}

// benchmarkBatching measures one dispatch carrying many writes collapsing
// into a single render of the subscribed component.
func benchmarkBatching() {
	tbl := table.NewWriter()
	tbl.SetTitle("Write Batching")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max"})

	for _, n := range []int{10, 100, 1_000} {
		tach := tachymeter.New(&tachymeter.Config{Size: iters})

		e := hooks.NewEngine()
		atoms := make([]hooks.Atom[int], n)
		for i := range atoms {
			atoms[i] = hooks.NewAtom(e, fmt.Sprintf("a%d", i), func() int { return 0 })
		}
		renders := 0
		e.Mount("app", func(ctx *hooks.Ctx) {
			renders++
			sum := 0
			for _, a := range atoms {
				sum += a.Get(ctx)
			}
			_ = sum
		})
		if err := e.RunPass(); err != nil {
			log.Panic(err)
		}

		for i := 0; i < iters; i++ {
			start := time.Now()
			if err := e.Dispatch(func() {
				for j, a := range atoms {
					a.Set(i*n + j)
				}
			}); err != nil {
				log.Panic(err)
			}
			tach.AddTime(time.Since(start))
		}
		if renders != 1+iters {
			log.Panicf("expected %d renders, got %d", 1+iters, renders)
		}

		m := tach.Calc()
		tbl.AppendRow(table.Row{
			fmt.Sprintf("%d writes, 1 render", n),
			m.Time.Avg, m.Time.Min, m.Time.P75, m.Time.P99, m.Time.Max,
		})
	}
	tbl.Render()
}
