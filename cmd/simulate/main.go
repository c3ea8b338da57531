package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/hookparty/hookparty/hooks"
	"github.com/urfave/cli/v3"
)

const (
	componentsKey = "components"
	eventsKey     = "events"
	writesKey     = "writes"
	seedKey       = "seed"
	graceKey      = "grace"
)

func main() {
	cmd := &cli.Command{
		Name:  "simulate",
		Usage: "Replay random external events against a hook-engine component tree",
		Flags: []cli.Flag{
			&cli.UintFlag{
				Name:  componentsKey,
				Usage: "Number of components to mount",
				Value: 16,
			},
			&cli.UintFlag{
				Name:  eventsKey,
				Usage: "Number of external events to dispatch",
				Value: 1000,
			},
			&cli.UintFlag{
				Name:  writesKey,
				Usage: "Atom writes per event",
				Value: 4,
			},
			&cli.IntFlag{
				Name:  seedKey,
				Usage: "PRNG seed",
				Value: 1,
			},
			&cli.UintFlag{
				Name:  graceKey,
				Usage: "Sweeper eviction grace, in passes",
				Value: 0,
			},
		},
		Action: simulate,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func simulate(ctx context.Context, cmd *cli.Command) error {
	start := time.Now()
	log.Printf("Simulation started")
	defer func() {
		log.Printf("Simulation finished in %v", time.Since(start))
	}()

	var (
		nComponents = int(cmd.Uint(componentsKey))
		nEvents     = int(cmd.Uint(eventsKey))
		nWrites     = int(cmd.Uint(writesKey))
		rng         = rand.New(rand.NewSource(cmd.Int(seedKey)))
	)

	e := hooks.NewEngine(
		hooks.WithEvictionGrace(int(cmd.Uint(graceKey))),
	)

	counters := make([]hooks.Atom[int], nComponents)
	for i := range counters {
		counters[i] = hooks.NewAtom(e, fmt.Sprintf("counter-%d", i), func() int { return 0 })
	}
	total := hooks.NewReaction(e, "total", func(rx *hooks.Rx) int {
		sum := 0
		for _, c := range counters {
			sum += c.Observe(rx)
		}
		return sum
	})

	var renders, effects int
	for i := 0; i < nComponents; i++ {
		i := i
		e.Mount(fmt.Sprintf("panel-%d", i), func(hctx *hooks.Ctx) {
			renders++
			mine := counters[i].Get(hctx)
			grand := total.Get(hctx)
			peak := hooks.UseState(hctx, func() int { return 0 })
			if mine > peak.Get() {
				peak.Set(mine)
			}
			hooks.UseEffect(hctx, func() func() {
				effects++
				return nil
			}, grand/10)
		})
	}
	if err := e.RunPass(); err != nil {
		return err
	}

	for ev := 0; ev < nEvents; ev++ {
		if err := e.Dispatch(func() {
			for w := 0; w < nWrites; w++ {
				c := counters[rng.Intn(nComponents)]
				c.Update(func(v *int) { *v++ })
			}
		}); err != nil {
			return err
		}
	}

	log.Printf("components: %d", nComponents)
	log.Printf("events dispatched: %d, writes per event: %d", nEvents, nWrites)
	log.Printf("component renders: %d", renders)
	log.Printf("effect runs: %d", effects)
	log.Printf("grand total: %d (expected %d)", total.GetUntracked(), nEvents*nWrites)
	return nil
}
