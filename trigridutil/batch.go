/*
Copyright © 2024 the trigrid authors.
This file is part of trigrid.

trigrid is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

trigrid is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with trigrid.  If not, see <http://www.gnu.org/licenses/>.
*/

package trigridutil

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/ctessum/geom"
	"github.com/ctessum/requestcache"

	"github.com/moldovancsaba/blockmass-sub003/cellid"
	"github.com/moldovancsaba/blockmass-sub003/internal/hash"
	"github.com/moldovancsaba/blockmass-sub003/trigrid"
)

// Batch computes cell descriptions concurrently on GOMAXPROCS
// processors. Repeated requests are computed once and recent results
// are kept in memory. The returned cells are shared between callers and
// must not be modified.
type Batch struct {
	cache *requestcache.Cache
}

// NewBatch returns a Batch that keeps up to cacheSize results in memory.
func NewBatch(cacheSize int) *Batch {
	b := new(Batch)
	b.cache = requestcache.NewCache(b.process, runtime.GOMAXPROCS(-1),
		requestcache.Deduplicate(), requestcache.Memory(cacheSize))
	return b
}

// locateRequest asks for the cell at level that contains a point.
type locateRequest struct {
	lat, lon float64
	level    int
}

func (b *Batch) process(ctx context.Context, request interface{}) (interface{}, error) {
	switch r := request.(type) {
	case cellid.ID:
		return trigrid.Describe(r)
	case locateRequest:
		id, err := trigrid.PointToCell(r.lat, r.lon, r.level)
		if err != nil {
			return nil, err
		}
		return trigrid.Describe(id)
	default:
		return nil, fmt.Errorf("trigridutil: invalid request type %T", request)
	}
}

// Describe returns the descriptions of ids, in the same order.
func (b *Batch) Describe(ctx context.Context, ids ...cellid.ID) ([]*trigrid.Cell, error) {
	payloads := make([]interface{}, len(ids))
	for i, id := range ids {
		payloads[i] = id
	}
	return b.do(ctx, payloads)
}

// Locate returns the descriptions of the cells at level containing
// points, where X is the longitude and Y the latitude of each point.
func (b *Batch) Locate(ctx context.Context, level int, points ...geom.Point) ([]*trigrid.Cell, error) {
	payloads := make([]interface{}, len(points))
	for i, p := range points {
		payloads[i] = locateRequest{lat: p.Y, lon: p.X, level: level}
	}
	return b.do(ctx, payloads)
}

// do sends one request per distinct payload, waits for them all and
// returns the results in the order of payloads, or the first error in
// that order. Payloads repeated within a call are sent once because
// the deduplicating cache only answers the copies of a request that
// succeeds.
func (b *Batch) do(ctx context.Context, payloads []interface{}) ([]*trigrid.Cell, error) {
	keys := make([]string, len(payloads))
	var reqs []*requestcache.Request
	index := make(map[string]int)
	for i, p := range payloads {
		keys[i] = hash.Key(p)
		if _, ok := index[keys[i]]; !ok {
			index[keys[i]] = len(reqs)
			reqs = append(reqs, b.cache.NewRequest(ctx, p, keys[i]))
		}
	}
	cells := make([]*trigrid.Cell, len(reqs))
	errs := make([]error, len(reqs))
	var wg sync.WaitGroup
	wg.Add(len(reqs))
	for i, r := range reqs {
		go func(i int, r *requestcache.Request) {
			defer wg.Done()
			res, err := r.Result()
			if err != nil {
				errs[i] = err
				return
			}
			cells[i] = res.(*trigrid.Cell)
		}(i, r)
	}
	wg.Wait()

	out := make([]*trigrid.Cell, len(payloads))
	for i, k := range keys {
		j := index[k]
		if errs[j] != nil {
			return nil, errs[j]
		}
		out[i] = cells[j]
	}
	return out, nil
}
