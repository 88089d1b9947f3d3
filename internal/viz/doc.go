// Package viz renders fractal displays in the terminal.
//
//   - [Preview]: a frame as colored half-block characters
//   - [Canvas]: Braille mask of diverged or undiverged points
//   - [Histogram]: distribution of a frame's display values
//   - [LiveModel]: Bubble Tea program that advances an engine and redraws
//
// # Key Bindings
//
//	Space - Pause/Resume iteration
//	C     - Cycle colormaps
//	D     - Cycle display modes
//	F     - Next frame
//	B     - Toggle Braille mask view
//	?     - Show help overlay
//	Q     - Quit
package viz
