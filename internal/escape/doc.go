// Package escape provides the iteration engine for escape-time fractals.
//
// An [Engine] owns two parallel grids indexed by (frame, x, y): the complex
// orbit value of every point and the number of update rounds that point has
// received. Frames are independent instances of the grid, typically one step
// of an animation sweep over zoom, shift, power or the additive parameter.
//
//   - [Series]: scalar-or-per-frame parameter values
//   - [Engine.InitJulia]: the pixel plane is the initial value
//   - [Engine.InitMandelbrot]: the pixel plane is the additive parameter
//   - [Engine.Advance]: bounded (escape-time) or wrapping iteration
//   - [Engine.SelectDisplay]: derive a real-valued array for rendering
//
// # Example
//
//	eng, _ := escape.New(escape.Options{
//		Window: escape.Window{Width: 512, Height: 512, Xmin: -2, Xmax: 1, Ymin: -1.5, Ymax: 1.5},
//		Frames: 1,
//	})
//	_ = eng.InitMandelbrot(escape.Scalar[complex128](2), escape.Scalar(2.0))
//	_ = eng.Advance(escape.Scalar(100), escape.Bounded)
//	disp, _ := eng.SelectDisplay(escape.ShowIterations, false)
//
// # Thread Safety
//
// An Engine is NOT safe for concurrent use. Each round is internally spread
// over worker goroutines, one (frame, column) unit at a time.
package escape
