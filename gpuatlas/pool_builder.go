package gpuatlas

// PoolOption is a functional option for configuring a Pool's fixed capacities
// during construction via NewPool.
type PoolOption func(*poolConfig)

type poolConfig struct {
	capacityVertices  uint32
	capacityIndices   uint32
	capacityInstances uint32
	maxCommands       uint32
}

// WithCapacityVertices sets the vertex atlas capacity, in vertices.
//
// Parameters:
//   - n: the maximum number of vertices the atlas can hold
//
// Returns:
//   - PoolOption: a function that applies the vertex capacity to a pool config
func WithCapacityVertices(n uint32) PoolOption {
	return func(c *poolConfig) {
		c.capacityVertices = n
	}
}

// WithCapacityIndices sets the index atlas capacity, in indices.
//
// Parameters:
//   - n: the maximum number of indices the atlas can hold
//
// Returns:
//   - PoolOption: a function that applies the index capacity to a pool config
func WithCapacityIndices(n uint32) PoolOption {
	return func(c *poolConfig) {
		c.capacityIndices = n
	}
}

// WithCapacityInstances sets the instance transform/identifier/remap capacity.
//
// Parameters:
//   - n: the maximum number of instances the pool can hold
//
// Returns:
//   - PoolOption: a function that applies the instance capacity to a pool config
func WithCapacityInstances(n uint32) PoolOption {
	return func(c *poolConfig) {
		c.capacityInstances = n
	}
}

// WithMaxCommands sets the maximum number of distinct draw commands (unique meshes).
//
// Parameters:
//   - n: the maximum number of indirect draw commands the pool can hold
//
// Returns:
//   - PoolOption: a function that applies the command capacity to a pool config
func WithMaxCommands(n uint32) PoolOption {
	return func(c *poolConfig) {
		c.maxCommands = n
	}
}
