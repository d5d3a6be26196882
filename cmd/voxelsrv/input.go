package main

import "github.com/go-gl/glfw/v3.3/glfw"

// inputState tracks mouse capture and the last cursor position, so
// SetCursorPosCallback can report a delta instead of an absolute
// position — the same pattern rt_main.go uses for its own free camera.
type inputState struct {
	captured   bool
	lastX      float64
	lastY      float64
	haveLastXY bool
}

func newInputState() *inputState {
	return &inputState{}
}

func (in *inputState) onCursorMove(xpos, ypos float64, cam *flyingCamera) {
	if !in.haveLastXY {
		in.lastX, in.lastY = xpos, ypos
		in.haveLastXY = true
		return
	}
	dx := xpos - in.lastX
	dy := ypos - in.lastY
	in.lastX, in.lastY = xpos, ypos

	if in.captured {
		cam.Look(float32(dx), float32(dy))
	}
}

func (in *inputState) onKey(w *glfw.Window, key glfw.Key, action glfw.Action) {
	if key == glfw.KeyTab && action == glfw.Press {
		in.captured = !in.captured
		if in.captured {
			w.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
		} else {
			w.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
		}
	}
	if key == glfw.KeyEscape && action == glfw.Press {
		w.SetShouldClose(true)
	}
}

// moveAxes polls WASD+Space/Ctrl, returning (right, up, forward) in
// [-1, 1] per axis for flyingCamera.Move.
func (in *inputState) moveAxes(w *glfw.Window) [3]float32 {
	var move [3]float32
	if w.GetKey(glfw.KeyW) == glfw.Press {
		move[2] += 1
	}
	if w.GetKey(glfw.KeyS) == glfw.Press {
		move[2] -= 1
	}
	if w.GetKey(glfw.KeyA) == glfw.Press {
		move[0] -= 1
	}
	if w.GetKey(glfw.KeyD) == glfw.Press {
		move[0] += 1
	}
	if w.GetKey(glfw.KeySpace) == glfw.Press {
		move[1] += 1
	}
	if w.GetKey(glfw.KeyLeftControl) == glfw.Press {
		move[1] -= 1
	}
	return move
}
