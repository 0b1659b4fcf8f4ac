// Package window handles SDL2 window and OpenGL context creation.
package window

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/radiance/internal/logger"
)

func init() {
	// OpenGL calls must be made from the main thread
	runtime.LockOSThread()
}

// RequiredExtensions are the GL extensions the renderer cannot run without.
var RequiredExtensions = []string{
	"GL_ARB_bindless_texture",
}

// Config holds window configuration.
type Config struct {
	Title      string
	Width      int
	Height     int
	Fullscreen bool
	VSync      bool
	// DebugContext requests a GL debug context.
	DebugContext bool
}

// Window wraps SDL2 window and OpenGL context.
type Window struct {
	config    Config
	sdlWindow *sdl.Window
	glContext sdl.GLContext
}

type glAttribute struct {
	attr  sdl.GLattr
	value int
}

// contextAttributes lists the GL attributes requested before the window is
// created: a 4.6 core double-buffered context with a 24-bit depth buffer.
func contextAttributes(cfg Config) []glAttribute {
	attrs := []glAttribute{
		{sdl.GL_CONTEXT_MAJOR_VERSION, 4},
		{sdl.GL_CONTEXT_MINOR_VERSION, 6},
		{sdl.GL_CONTEXT_PROFILE_MASK, sdl.GL_CONTEXT_PROFILE_CORE},
		{sdl.GL_DOUBLEBUFFER, 1},
		{sdl.GL_DEPTH_SIZE, 24},
	}
	if cfg.DebugContext {
		attrs = append(attrs, glAttribute{sdl.GL_CONTEXT_FLAGS, sdl.GL_CONTEXT_DEBUG_FLAG})
	}
	return attrs
}

// missingExtensions returns the entries of required that supported rejects.
func missingExtensions(required []string, supported func(string) bool) []string {
	var missing []string
	for _, ext := range required {
		if !supported(ext) {
			missing = append(missing, ext)
		}
	}
	return missing
}

// New creates a window with an OpenGL 4.6 core context. Multi-draw-indirect
// with gl_BaseInstance needs 4.6; bindless material textures need
// ARB_bindless_texture, which is checked once the context exists.
func New(cfg Config) (*Window, error) {
	w := &Window{
		config: cfg,
	}

	logger.Info("initializing SDL2")
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, fmt.Errorf("SDL_Init failed: %w", err)
	}

	for _, a := range contextAttributes(cfg) {
		if err := sdl.GLSetAttribute(a.attr, a.value); err != nil {
			logger.Warn("GL attribute rejected", zap.Int("attr", int(a.attr)), zap.Int("value", a.value), zap.Error(err))
		}
	}

	flags := uint32(sdl.WINDOW_OPENGL | sdl.WINDOW_RESIZABLE | sdl.WINDOW_ALLOW_HIGHDPI)
	if cfg.Fullscreen {
		flags |= sdl.WINDOW_FULLSCREEN_DESKTOP
	}

	var err error
	w.sdlWindow, err = sdl.CreateWindow(
		cfg.Title,
		sdl.WINDOWPOS_CENTERED,
		sdl.WINDOWPOS_CENTERED,
		int32(cfg.Width),
		int32(cfg.Height),
		flags,
	)
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("SDL_CreateWindow failed: %w", err)
	}

	w.glContext, err = w.sdlWindow.GLCreateContext()
	if err != nil {
		w.sdlWindow.Destroy()
		sdl.Quit()
		return nil, fmt.Errorf("SDL_GL_CreateContext failed: %w", err)
	}

	if missing := missingExtensions(RequiredExtensions, sdl.GLExtensionSupported); len(missing) > 0 {
		w.Close()
		return nil, fmt.Errorf("OpenGL context lacks %s", strings.Join(missing, ", "))
	}

	interval := 0
	if cfg.VSync {
		interval = 1
	}
	if err := sdl.GLSetSwapInterval(interval); err != nil {
		logger.Warn("failed to set swap interval", zap.Int("interval", interval), zap.Error(err))
	}

	logger.Info("window created",
		zap.String("title", cfg.Title),
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height),
		zap.Bool("fullscreen", cfg.Fullscreen),
		zap.Bool("vsync", cfg.VSync),
		zap.Bool("debug_context", cfg.DebugContext),
	)

	return w, nil
}

// Close destroys the window and cleans up SDL2.
func (w *Window) Close() {
	logger.Info("closing window")

	if w.glContext != nil {
		sdl.GLDeleteContext(w.glContext)
	}
	if w.sdlWindow != nil {
		w.sdlWindow.Destroy()
	}

	sdl.Quit()
}

// SwapBuffers swaps the OpenGL buffers.
func (w *Window) SwapBuffers() {
	w.sdlWindow.GLSwap()
}

// GetSize returns the current drawable size in pixels.
func (w *Window) GetSize() (int, int) {
	width, height := w.sdlWindow.GLGetDrawableSize()
	return int(width), int(height)
}

// SetTitle sets the window title.
func (w *Window) SetTitle(title string) {
	w.sdlWindow.SetTitle(title)
}

// WindowSize returns the window size in screen coordinates, which differs
// from the drawable size on high-DPI displays.
func (w *Window) WindowSize() (int, int) {
	width, height := w.sdlWindow.GetSize()
	return int(width), int(height)
}
