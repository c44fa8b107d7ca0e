package commands

import (
	"log/slog"

	"github.com/agiangrant/glview"
)

// logEngine stands in for the native library during a dry run. Every entry
// point logs its arguments.
type logEngine struct {
	logger *slog.Logger
}

var (
	_ glview.Engine               = logEngine{}
	_ glview.PointerHandler       = logEngine{}
	_ glview.LongPressHandler     = logEngine{}
	_ glview.KineticScrollHandler = logEngine{}
)

func (e logEngine) HandleInit(storagePath string) {
	e.logger.Info("handle_init", "storage", storagePath)
}

func (e logEngine) HandleResize(width, height int) {
	e.logger.Info("handle_resize", "width", width, "height", height)
}

func (e logEngine) HandleRedraw() {
	e.logger.Debug("handle_redraw")
}

func (e logEngine) HandleMouseButtonDown(x, y int) {
	e.logger.Info("handle_mouse_button_down", "x", x, "y", y)
}

func (e logEngine) HandleMouseButtonUp(x, y int) {
	e.logger.Info("handle_mouse_button_up", "x", x, "y", y)
}

func (e logEngine) HandleMouseMove(x, y int) {
	e.logger.Info("handle_mouse_move", "x", x, "y", y)
}

func (e logEngine) HandleScroll(originX, originY int, velocityX, velocityY float32) {
	e.logger.Info("handle_scroll", "x", originX, "y", originY, "vx", velocityX, "vy", velocityY)
}

func (e logEngine) HandlePointerButtonDown(x, y float32, pointerID int) {
	e.logger.Debug("handle_pointer_button_down", "x", x, "y", y, "pointer", pointerID)
}

func (e logEngine) HandlePointerButtonUp(x, y float32, pointerID int) {
	e.logger.Debug("handle_pointer_button_up", "x", x, "y", y, "pointer", pointerID)
}

func (e logEngine) HandlePointerMove(x, y float32, pointerID int) {
	e.logger.Debug("handle_pointer_move", "x", x, "y", y, "pointer", pointerID)
}

func (e logEngine) HandleLongPress(x, y int) {
	e.logger.Info("handle_long_press", "x", x, "y", y)
}

func (e logEngine) HandleKineticScroll(x, y int) {
	e.logger.Debug("handle_kinetic_scroll", "x", x, "y", y)
}
