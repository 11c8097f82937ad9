// Package dicom reads clinical imaging objects: it parses DICOM
// streams, resolves metadata that vendors scatter across functional
// group and modality sequences, extracts and normalizes pixel frames,
// and groups files into ordered series.
//
// The package decodes native (uncompressed) pixel data itself and
// locates compressed frames for external codecs registered through
// RegisterDecoder.
package dicom
