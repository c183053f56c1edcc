// Package trap provides analytic models of the time-varying electric field
// that confines the ions.
//
// All models work in reduced units. Time is measured in units of 2/Ω, where
// Ω is the angular RF frequency, and length in units chosen so that the
// Coulomb constant between two 1 e charges of 1 amu mass is exactly one:
//
//	L³ = e² / (π ε₀ m_u Ω²)
//
// [Trap.ForceAt] returns the field felt by a reference ion of unit charge and
// unit mass. A real ion scales it by charge/mass, which makes the Mathieu
// parameters a and q species dependent without the trap knowing about
// species at all.
//
//   - [Cosine]: sinusoidal RF drive
//   - [Digital]: square-wave RF drive with a configurable duty cycle
//   - [Static]: time-independent harmonic field, e.g. the pseudopotential
//     approximation of a cosine trap
package trap
