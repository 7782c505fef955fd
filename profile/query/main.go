// Profiling:
// go build ./profile/query
// go tool pprof -http=":8000" -nodefraction=0.001 ./query cpu.pprof

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

type comp3 struct {
	V int64
	W int64
}

type comp4 struct {
	V int64
	W int64
}

type comp5 struct {
	V int64
	W int64
}

func main() {
	count := 50
	iters := 10000
	entities := 100000
	p := profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook)
	run(count, iters, entities)
	p.Stop()
}

// run measures chunk iteration over a single archetype.
func run(rounds, iters, numEntities int) {
	for range rounds {
		s, err := kura.NewStore(kura.WithInitialCapacity(numEntities))
		if err != nil {
			panic(err)
		}
		arch := s.ArchetypeOf(kura.Signature5[comp1, comp2, comp3, comp4, comp5]())
		if _, err := s.CreateEntities(arch, numEntities, nil); err != nil {
			panic(err)
		}
		query := kura.NewQuery5[comp1, comp2, comp3, comp4, comp5](s)

		for range iters {
			it := query.Chunks()
			for it.Next() {
				ch := it.Chunk()
				s1, s2 := ch.Chunk1.Span(), ch.Chunk2.Span()
				for i := range s1 {
					s1[i].V += s2[i].V
					s1[i].W += s2[i].W
				}
			}
		}
	}
}
