package analysis

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// AcceptedExtension is the only file extension the service accepts.
// The match is case-sensitive: "DATA.CSV" is rejected.
const AcceptedExtension = ".csv"

// ErrNotCSV is returned when a candidate file fails local validation.
var ErrNotCSV = errors.New("only CSV files are allowed")

// ValidateFilename checks a candidate file name before any network call.
func ValidateFilename(name string) error {
	base := filepath.Base(name)
	if base == "" || base == "." || !strings.HasSuffix(base, AcceptedExtension) {
		return fmt.Errorf("%w: %q", ErrNotCSV, name)
	}
	if base == AcceptedExtension {
		return fmt.Errorf("%w: %q has no name before the extension", ErrNotCSV, name)
	}
	return nil
}
