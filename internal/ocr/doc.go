// Package ocr provides Optical Character Recognition (OCR) functionality using Tesseract.
//
// This package wraps the Tesseract OCR engine (via gosseract/v2). The region
// editor uses it in two places: the OCR based detector looks for identifying
// text to seed redaction regions, and the local recognizer reads the text of a
// cropped prescription.
//
// # Prerequisites
//
// Tesseract must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr
//   - macOS: brew install tesseract
//   - Windows: Download from https://github.com/UB-Mannheim/tesseract/wiki
//
// Language data files are required for each language:
//   - Ubuntu/Debian: apt-get install tesseract-ocr-eng (for English)
//   - Other languages: tesseract-ocr-<lang> packages
//
// A non-default tessdata directory can be set with Engine.TessdataPrefix.
//
// # Results
//
// Recognize returns the full text of an image plus one Word per recognized
// word, each with a confidence in 0..1 and a bounding box in the image's
// natural pixel space. Empty words are dropped. If word boxes cannot be read,
// the full text is still returned with no words.
//
// # Performance Considerations
//
// OCR is computationally expensive. Each call creates its own Tesseract
// client, so one Engine can be shared by concurrent callers.
package ocr
