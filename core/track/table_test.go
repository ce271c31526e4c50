package track

import (
	"fmt"
	"sync"
	"testing"

	"github.com/kilianp07/fleetcoord/core/model"
)

func TestTable_OverwriteKeepsLatestOnly(t *testing.T) {
	tab := NewTable()
	tab.Set(model.Location{VehicleID: "v1", Latitude: 1})
	tab.Set(model.Location{VehicleID: "v1", Latitude: 2})
	loc, ok := tab.Latest("v1")
	if !ok || loc.Latitude != 2 {
		t.Fatalf("expected latest 2 got %#v %v", loc, ok)
	}
	if _, ok := tab.Latest("v2"); ok {
		t.Fatal("unknown vehicle must have no location")
	}
}

func TestTable_ConcurrentDistinctVehicles(t *testing.T) {
	tab := NewTable()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("v%d", i)
			for j := 0; j < 100; j++ {
				tab.Set(model.Location{VehicleID: id, Latitude: float64(j)})
			}
		}(i)
	}
	wg.Wait()
	for i := 0; i < 32; i++ {
		loc, ok := tab.Latest(fmt.Sprintf("v%d", i))
		if !ok || loc.Latitude != 99 {
			t.Fatalf("vehicle v%d: %#v %v", i, loc, ok)
		}
	}
}
