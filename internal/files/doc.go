// Package files reads the pipeline's source dataset from the local filesystem.
//
// ReadSource accepts CSV and xlsx files (first sheet, first row as header).
// Reader adds directory support through Discovery: when the configured source
// is a directory, the most recently modified CSV or xlsx file in it is read.
package files
