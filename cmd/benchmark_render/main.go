package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hookparty/hookparty/hooks"
	"github.com/olekukonko/tablewriter"
)

// One workload mounts a tree of components, each holding local state and
// reading a slice of shared atoms, then replays external events against it.
type workloadConfig struct {
	name       string
	components int
	statesPer  int
	atoms      int
	readsPer   int
	events     int64
	writesPer  int
}

func main() {
	log.Print("Starting render-pass benchmark, please wait...")
	defer log.Print("Finished render-pass benchmark")

	cfgs := []workloadConfig{
		{
			name:       "small app",
			components: 10,
			statesPer:  4,
			atoms:      8,
			readsPer:   2,
			events:     50_000,
			writesPer:  1,
		},
		{
			name:       "chatty events",
			components: 50,
			statesPer:  4,
			atoms:      32,
			readsPer:   4,
			events:     10_000,
			writesPer:  16,
		},
		{
			name:       "wide tree",
			components: 500,
			statesPer:  8,
			atoms:      64,
			readsPer:   4,
			events:     2_000,
			writesPer:  4,
		},
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{
		"workload", "components", "atoms", "events", "writes/event",
		"renders", "time", "renders/ms",
	})

	testRepeats := 5
	for _, cfg := range cfgs {
		log.Printf("Running '%s' config", cfg.name)

		best := time.Hour
		var bestRenders int64
		for i := 0; i < testRepeats; i++ {
			renders, duration := runWorkload(cfg)
			if duration < best {
				best = duration
				bestRenders = renders
			}
		}

		renderRate := float64(bestRenders) / (float64(best) / float64(time.Millisecond))
		table.Append([]string{
			cfg.name,
			humanize.Comma(int64(cfg.components)),
			humanize.Comma(int64(cfg.atoms)),
			humanize.Comma(cfg.events),
			fmt.Sprint(cfg.writesPer),
			humanize.Comma(bestRenders),
			fmt.Sprint(best),
			humanize.Comma(int64(renderRate)),
		})
	}
	table.Render()
}

func runWorkload(cfg workloadConfig) (renders int64, duration time.Duration) {
	e := hooks.NewEngine()

	atoms := make([]hooks.Atom[int], cfg.atoms)
	for i := range atoms {
		atoms[i] = hooks.NewAtom(e, fmt.Sprintf("shared-%d", i), func() int { return 0 })
	}

	for i := 0; i < cfg.components; i++ {
		i := i
		e.Mount(fmt.Sprintf("component-%d", i), func(ctx *hooks.Ctx) {
			renders++
			for s := 0; s < cfg.statesPer; s++ {
				st := hooks.UseState(ctx, func() int { return 0 })
				_ = st.Get()
			}
			for r := 0; r < cfg.readsPer; r++ {
				_ = atoms[(i+r)%len(atoms)].Get(ctx)
			}
		})
	}
	if err := e.RunPass(); err != nil {
		log.Panic(err)
	}

	start := time.Now()
	for ev := int64(0); ev < cfg.events; ev++ {
		ev := ev
		if err := e.Dispatch(func() {
			for w := 0; w < cfg.writesPer; w++ {
				atoms[(int(ev)+w)%len(atoms)].Set(int(ev) + w + 1)
			}
		}); err != nil {
			log.Panic(err)
		}
	}
	return renders, time.Since(start)
}
