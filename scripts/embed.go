// Package scripts embeds the Risor scripts bundled with shapes.
//
//   - demo.risor     measures the three reference shapes and searches "raman"
//   - shapelib.risor helpers importable from any script via "import shapelib"
package scripts

import "embed"

//go:embed *.risor
var FS embed.FS

// Demo is the path of the demonstration script within FS.
const Demo = "demo.risor"
