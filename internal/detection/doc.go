// Package detection finds the entities a document redaction session starts
// from.
//
// A Detector looks at a decoded source image and returns Entities: a piece of
// flagged text or a face, its type, a score in 0..1, and a bounding box in the
// image's natural pixel space. Each entity becomes one predefined region,
// active by default, through ToSeeds.
//
// # Backends
//
//   - HTTPDetector posts the raw file bytes to an entity detection service
//     and reads {"entities":[{text,type,category,score,boundingBox}]}.
//   - OCRDetector reads the page with Tesseract and flags emails, phone
//     numbers, SSNs, dates and record numbers, plus the words that follow
//     labels such as "Name:" or "DOB".
//   - FaceDetector finds faces with a pigo cascade, for ID photos on scans.
//   - TextBlockDetector flags text-like areas from edge structure alone,
//     for handwriting and stamps OCR cannot read.
//
// Composite runs several backends at once and orders the result top to
// bottom. It keeps every entity a member reports. Heuristic backends are
// wrapped in MinScore to drop weak guesses. Service entities are never
// filtered.
//
// # Coordinate System
//
// All boxes use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//   - Bounding boxes use inclusive top-left and exclusive bottom-right
package detection
