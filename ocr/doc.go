package ocr

// Package ocr defines the recognizer adapter surface between the page
// processing pipeline and external OCR engines. The interfaces are
// intentionally small so engines can be backed by native libraries or local
// binaries without leaking provider-specific concerns into callers.
