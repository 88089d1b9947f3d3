// Package stream serves fractal runs over websocket: progress as JSON text
// messages, then every frame as a PNG binary message.
package stream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"log"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/san-kum/fractal/internal/config"
	"github.com/san-kum/fractal/internal/escape"
	"github.com/san-kum/fractal/internal/render"
)

const (
	TypeProgress = "progress"
	TypeFrame    = "frame"
	TypeDone     = "done"
	TypeError    = "error"
)

// Progress is sent after every completed round.
type Progress struct {
	Type  string `json:"type"`
	Round int    `json:"round"`
	Total int    `json:"total"`
}

// FrameHeader precedes the binary PNG message of one frame.
type FrameHeader struct {
	Type  string `json:"type"`
	Frame int    `json:"frame"`
	Name  string `json:"name"`
	Param string `json:"param"`
}

// Done ends a successful run.
type Done struct {
	Type  string              `json:"type"`
	Steps int                 `json:"steps"`
	Stats []escape.FrameStats `json:"stats"`
}

type Error struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Handler runs plan once per websocket connection.
func Handler(plan *config.Plan, cmap *render.Colormap) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			log.Println(err)
			return
		}
		defer c.CloseNow()

		if err := Run(r.Context(), c, plan, cmap); err != nil {
			log.Printf("stream %s: %v", r.RemoteAddr, err)
			_ = wsjson.Write(r.Context(), c, Error{Type: TypeError, Message: err.Error()})
			c.Close(websocket.StatusInternalError, "run failed")
			return
		}
		c.Close(websocket.StatusNormalClosure, "")
	}
}

// Run computes plan and streams it over c.
func Run(ctx context.Context, c *websocket.Conn, plan *config.Plan, cmap *render.Colormap) error {
	eng, err := plan.NewEngine()
	if err != nil {
		return err
	}

	// A failed progress write means the client is gone; stop computing.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var sendErr error
	interval := max(1, plan.LogInterval)
	eng.SetObserver(escape.ObserverFunc(func(round, total int) {
		if sendErr != nil || (round%interval != 0 && round != total) {
			return
		}
		if sendErr = wsjson.Write(runCtx, c, Progress{Type: TypeProgress, Round: round, Total: total}); sendErr != nil {
			cancel()
		}
	}))

	err = eng.AdvanceContext(runCtx, plan.Steps, plan.Mode)
	if sendErr != nil {
		return fmt.Errorf("send progress: %w", sendErr)
	}
	if err != nil {
		return err
	}

	disp, err := eng.SelectDisplay(plan.Display, plan.Normalize)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	for f := 0; f < disp.Shape.Frames; f++ {
		param := disp.Params[f]
		header := FrameHeader{
			Type:  TypeFrame,
			Frame: f,
			Name:  render.FrameName(f, param),
			Param: config.FormatComplex(param),
		}
		if err := wsjson.Write(ctx, c, header); err != nil {
			return err
		}

		buf.Reset()
		if err := png.Encode(&buf, render.Frame(disp, f, cmap, plan.Grayscale)); err != nil {
			return err
		}
		if err := c.Write(ctx, websocket.MessageBinary, buf.Bytes()); err != nil {
			return err
		}
	}

	return wsjson.Write(ctx, c, Done{Type: TypeDone, Steps: eng.TotalSteps(), Stats: eng.Stats()})
}

// IsClosed reports whether err means the peer went away normally.
func IsClosed(err error) bool {
	return websocket.CloseStatus(err) == websocket.StatusNormalClosure || errors.Is(err, context.Canceled)
}
