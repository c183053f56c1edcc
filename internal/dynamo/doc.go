// Package dynamo provides the shared primitives of the ion-trap molecular
// dynamics core.
//
// The package defines the vocabulary used by every other package:
//
//   - the error taxonomy ([ErrConfiguration], [ErrNumericalDegeneracy],
//     [ErrAllocation], [ErrInvalidIndex]) and [SimulationError]
//   - [Integrator]: advances the full ion state by one macro step
//   - [Sink]: push-style receiver of per-step ion observations
//   - [Span] and [Partition]: contiguous work decomposition for worker pools
//
// # Error Propagation
//
// Configuration and numerical errors are fatal to a run and are returned up
// to the command line unchanged, wrapped with context:
//
//	if err := integ.Evolve(dt); err != nil {
//	    if errors.Is(err, dynamo.ErrNumericalDegeneracy) {
//	        // coincident ions, abort the run
//	    }
//	}
//
// Index and type-change failures are local to the caller and never abort a
// run on their own.
package dynamo
