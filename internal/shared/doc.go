// Package shared holds helpers used by more than one package. The testutil
// subpackage builds fake S&P 500 constituents and captures slog output for
// assertions.
package shared
