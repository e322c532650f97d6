// Package exporter encodes datasets as CSV.
//
// EncodeCSV writes a header row and one record per row with no index column.
// Missing cells are written empty and floats always carry a fractional part
// (300.0), so DecodeCSV can restore the column kinds on the way back in.
//
// CSVWriter writes encoded frames to the local filesystem:
//
//	writer := exporter.NewCSVWriter("data/exports", logger)
//	err := writer.WriteFrame("sp500_transformed.csv", frame)
package exporter
