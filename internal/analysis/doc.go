// Package analysis extracts motional frequencies from the time series of a
// run.
//
// In a Paul trap the kinetic energy oscillates at the RF drive (ω = 2 in
// reduced time) and at combinations of the secular frequencies:
//
//	trace := analysis.NewKineticTrace(sim.PhaseHist, 1<<14)
//	s.AddObserver(trace)
//	...
//	omega, power := analysis.PowerSpectrum(trace.Samples(), dt)
//	peaks := analysis.Peaks(omega, power, 5)
package analysis
