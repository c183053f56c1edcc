// Package ions holds the per-particle state of the simulation and the
// ordered cloud that owns it.
//
// An [IonType] describes a species and is shared by pointer between every
// [Ion] of that species. An ion is either plainly trapped or laser cooled;
// the variant is fixed at construction from the species flags and decides
// whether [Ion.VelocityScale] and [Ion.Heat] do anything.
//
// The trap is never stored on an ion. It is passed into [Ion.KickTrap] (and
// [Cloud.KickTrap]) on every call, so a single read-only trap value serves
// the whole cloud.
package ions
