package track

import (
	"hash/fnv"
	"sync"

	"github.com/kilianp07/fleetcoord/core/model"
)

const tableShards = 16

// Table holds the last-known location per vehicle. Distinct vehicles'
// streams are independent, so entries are sharded by vehicle ID instead of
// serializing every write behind one mutex.
type Table struct {
	shards [tableShards]tableShard
}

type tableShard struct {
	mu   sync.RWMutex
	data map[string]model.Location
}

// NewTable returns an empty table.
func NewTable() *Table {
	t := &Table{}
	for i := range t.shards {
		t.shards[i].data = make(map[string]model.Location)
	}
	return t
}

func (t *Table) shard(vehicleID string) *tableShard {
	h := fnv.New32a()
	h.Write([]byte(vehicleID))
	return &t.shards[h.Sum32()%tableShards]
}

// Set overwrites the stored location for the vehicle.
func (t *Table) Set(loc model.Location) {
	sh := t.shard(loc.VehicleID)
	sh.mu.Lock()
	sh.data[loc.VehicleID] = loc
	sh.mu.Unlock()
}

// Latest returns the last-known location for the vehicle, if any.
func (t *Table) Latest(vehicleID string) (model.Location, bool) {
	sh := t.shard(vehicleID)
	sh.mu.RLock()
	loc, ok := sh.data[vehicleID]
	sh.mu.RUnlock()
	return loc, ok
}
