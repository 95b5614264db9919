package gpuatlas

import (
	"sync"
	"testing"
)

func TestPoolPhaseDefaultsToLoading(t *testing.T) {
	p := &Pool{mu: &sync.Mutex{}}
	if got := p.Phase(); got != PhaseLoading {
		t.Errorf("Phase() = %v, want %v", got, PhaseLoading)
	}
}

func TestPoolCapacitiesReportsConstruction(t *testing.T) {
	p := &Pool{
		mu: &sync.Mutex{},
		capacities: PoolCapacities{
			Vertices:    1000,
			Indices:     3000,
			Instances:   500,
			MaxCommands: 64,
		},
	}

	got := p.Capacities()
	want := PoolCapacities{Vertices: 1000, Indices: 3000, Instances: 500, MaxCommands: 64}
	if got != want {
		t.Errorf("Capacities() = %+v, want %+v", got, want)
	}
}

func TestPoolUsageTracksCursors(t *testing.T) {
	p := &Pool{
		mu:             &sync.Mutex{},
		vertexCursor:   120,
		indexCursor:    360,
		instanceCursor: 42,
		commandCount:   3,
	}

	got := p.Usage()
	want := PoolUsage{Vertices: 120, Indices: 360, Instances: 42, Commands: 3}
	if got != want {
		t.Errorf("Usage() = %+v, want %+v", got, want)
	}
}

func TestPoolOptionsApplyCapacities(t *testing.T) {
	cfg := &poolConfig{}
	opts := []PoolOption{
		WithCapacityVertices(100),
		WithCapacityIndices(300),
		WithCapacityInstances(50),
		WithMaxCommands(8),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	want := poolConfig{capacityVertices: 100, capacityIndices: 300, capacityInstances: 50, maxCommands: 8}
	if *cfg != want {
		t.Errorf("poolConfig = %+v, want %+v", *cfg, want)
	}
}
