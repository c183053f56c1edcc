// Package integrators advances an ion cloud through time.
//
// [RESPA] is the production integrator. Each macro step evaluates the
// Coulomb forces at its start and end and resolves the trap field with
// respaSteps inner velocity-Verlet sub-steps in between. With respaSteps == 1
// it is an ordinary velocity-Verlet step, which [VelocityVerlet] implements
// directly on the summed force for cross-checking.
//
// Laser cooling and recoil heating are applied once per macro step after the
// symplectic part and so break its time reversibility.
package integrators
