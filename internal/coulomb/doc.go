// Package coulomb computes the pairwise electrostatic forces of an ion cloud.
//
// The [Engine] visits every unordered pair once and accumulates k·qi·qj/d²
// along the separation, equal and opposite on the two ions. Large clouds are
// split over a persistent pool of workers:
//
//	eng := coulomb.New(cloud, 1.0)
//	defer eng.Close()
//	if err := eng.Update(); err != nil {
//	    return err // coincident ions, dynamo.ErrNumericalDegeneracy
//	}
//	forces := eng.Forces()
//
// Each worker owns a slice of the outer pair index and a private
// accumulation buffer. Positions and charges are copied into a snapshot
// before any worker starts, and the private buffers are summed into the
// force buffer only after every worker has reported back.
package coulomb
