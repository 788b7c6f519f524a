package commands

import (
	"fmt"
	"io"

	"github.com/source-dmx/dmx-go/pkg/version"
)

// RunFormats runs the formats command, listing the embedded manifests.
func RunFormats(_ []string, stdout, stderr io.Writer) int {
	tags, err := version.AvailableFormats()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}
	for _, tag := range tags {
		m, err := version.LoadFormat(tag)
		if err != nil {
			fmt.Fprintf(stderr, "Error loading %s: %v\n", tag, err)
			return exitCommandError
		}
		fmt.Fprintf(stdout, "%s - %s\n", m.Format, m.Description)
		for _, v := range m.Versions {
			fmt.Fprintf(stdout, "  version %d: %s %d\n", v.Version, v.Encoding, v.EncodingVersion)
		}
	}
	return exitSuccess
}
