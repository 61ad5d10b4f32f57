// Package pipeline runs editing sessions from an opened image to a delivered
// result.
//
// A redact session detects sensitive regions in the background, lets the user
// toggle them and draw more, then bakes an opaque mask into a copy of the
// image and uploads it:
//
//	SelectFile -> Detecting -> Editing -> Baking -> Uploading -> Done
//
// A crop session starts in Editing with an empty selection, bakes the
// selected area and sends it for recognition:
//
//	SelectFile -> Editing -> Baking -> Recognizing -> Done
//
// Any open session can be cancelled. Collaborator calls are never aborted
// by Cancel; their results are dropped when they return. A bake, upload or
// recognition failure leaves the session in Failed with its edits intact, so
// it can be confirmed again or resumed for more editing.
package pipeline
