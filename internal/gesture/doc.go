// Package gesture turns pointer sequences into region model mutations.
//
// A Controller owns the region set of one editing session together with the
// current display frame. Pointer events arrive in display space:
//
//	Press   -> hit test, enter Drawing, Moving or Resizing
//	Move    -> update the live rectangle in display space
//	Release -> convert once to natural space, commit, return to Idle
//	Leave   -> same as Release, using the last known position
//
// # States
//
// The gesture state is one of Idle, Drawing, Moving or Resizing. Each carries
// only the payload that makes sense for it, so a resize that starts while a
// move is in progress cannot be expressed. Press refuses to start a gesture
// unless the controller is Idle.
//
// # Commit Rules
//
// Intermediate moves never touch the region set. The gesture is converted to
// natural space exactly once, on release, so rounding does not accumulate.
// Drawings smaller than MinDrawSize display pixels are discarded. A resize
// drags only the grabbed edges and stops them at the opposite edge; a result
// with zero width or height is rejected by the region model and the region
// keeps its previous geometry. A move keeps the natural size of the region and
// translates it to stay inside the image.
//
// # Locking
//
// The orchestrator locks the controller while a network call is in flight.
// A locked controller refuses new gestures, toggles and deletes.
package gesture
