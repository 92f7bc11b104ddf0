package ashlar

import "os"

// missingInputs returns the subset of paths that cannot be statted,
// preserving the caller's order so the error message is stable.
func missingInputs(paths []string) []string {
	var missing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			missing = append(missing, p)
		}
	}
	return missing
}
