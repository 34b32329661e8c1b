package graph

import "github.com/graphview/backend/pkg/loader"

const defaultParallelLoads = 8

// GraphClient assembles entity graphs from the snapshots of a
// SnapshotLoader. It holds no per-request state and is safe for
// concurrent use.
//
// A GraphClient should be created using NewGraphClient.
type GraphClient struct {
	loader        loader.SnapshotLoader
	parallelLoads int
}

// NewGraphClientParams defines the configuration parameters for creating
// a new GraphClient.
//
// Loader is the snapshot store the client reads from.
// ParallelLoads limits how many snapshots are read concurrently per request.
type NewGraphClientParams struct {
	Loader        loader.SnapshotLoader
	ParallelLoads int
}

// NewGraphClient creates and returns a new GraphClient configured with
// the provided parameters.
//
// Example:
//
//	l, err := io.NewOSSnapshotLoader("data")
//	if err != nil {
//		log.Fatal(err)
//	}
//	client := graph.NewGraphClient(graph.NewGraphClientParams{
//		Loader:        l,
//		ParallelLoads: 4,
//	})
//	g, err := client.Assemble(ctx, []string{"component"}, []string{"uses"})
func NewGraphClient(params NewGraphClientParams) *GraphClient {
	parallelLoads := params.ParallelLoads
	if parallelLoads <= 0 {
		parallelLoads = defaultParallelLoads
	}

	return &GraphClient{
		loader:        params.Loader,
		parallelLoads: parallelLoads,
	}
}
