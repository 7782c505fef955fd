// Profiling:
// go build ./profile/entities
// go tool pprof -http=":8000" -nodefraction=0.001 ./entities mem.pprof

package main

import (
	"github.com/edwinsyarief/kura"
	"github.com/pkg/profile"
)

type comp1 struct {
	V int64
	W int64
}

type comp2 struct {
	V int64
	W int64
}

type marker struct{}

func main() {
	count := 50
	iters := 1000
	entities := 1000
	p := profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook)
	run(count, iters, entities)
	p.Stop()
}

// run exercises structural churn: batch creation, component migration, tag
// changes and swap-remove deletion.
func run(rounds, iters, numEntities int) {
	for range rounds {
		s, err := kura.NewStore(kura.WithInitialCapacity(numEntities))
		if err != nil {
			panic(err)
		}
		arch := s.ArchetypeOf(kura.Signature1[comp1]())
		query := kura.NewQuery2[comp1, comp2](s)
		entities := make([]kura.Entity, 0, numEntities)

		for range iters {
			entities, _ = s.CreateEntities(arch, numEntities, entities[:0])
			for _, e := range entities {
				kura.AddComponentValue(e, comp2{V: 1, W: 2})
				kura.AddTag[marker](e)
			}
			query.ForEach(func(_ kura.Entity, c1 *comp1, c2 *comp2) {
				c1.V += c2.V
				c1.W += c2.W
			})
			for _, e := range entities {
				e.Delete()
			}
		}
	}
}
