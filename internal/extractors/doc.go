// Package extractors provides implementations of the Extractor interface
// for the supported upload formats. Each extractor knows how to read the
// page text of one file type.
//
// Extractors are registered with the Registry at startup.
package extractors
