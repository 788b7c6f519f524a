// Package commands implements the dmx-conv subcommands.
package commands

import (
	"os"

	"github.com/source-dmx/dmx-go/pkg/datamodel"

	// Register the shipped codecs.
	_ "github.com/source-dmx/dmx-go/pkg/codec/binary"
	_ "github.com/source-dmx/dmx-go/pkg/codec/keyvalues2"
)

// Exit codes shared by all commands.
const (
	exitSuccess      = 0
	exitCommandError = 1
)

// loadFile opens and decodes a datamodel file.
func loadFile(path string, mode datamodel.DeferredMode) (*datamodel.DataModel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return datamodel.Load(f, mode)
}
