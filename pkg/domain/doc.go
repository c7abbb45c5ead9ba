// Package domain holds the passive entities shared across the canopy
// core: authored graph nodes and edges, the compiled GraphSpec, the
// execution event union, and run transcript types.
//
// Types here carry no behavior beyond serialization. The compiler and the
// run reducer own all semantics.
package domain
