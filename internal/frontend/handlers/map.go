// Package handlers provides the Telnet map-browser session handler.
package handlers

import (
	"context"
	"fmt"

	"github.com/gookit/color"
	"go.uber.org/zap"

	"github.com/cory-johannsen/mudmap/internal/frontend/telnet"
	"github.com/cory-johannsen/mudmap/internal/game/command"
	"github.com/cory-johannsen/mudmap/internal/game/scene"
	"github.com/cory-johannsen/mudmap/internal/game/session"
	"github.com/cory-johannsen/mudmap/internal/game/view"
	"github.com/cory-johannsen/mudmap/internal/game/world"
	"github.com/cory-johannsen/mudmap/internal/render/ansi"
)

const welcome = "Map browser. Type help for commands."

var stylePrompt = color.Style{color.FgCyan, color.OpBold}

// MapHandler implements telnet.SessionHandler: every connection gets its own
// view session and browses the loaded maps by typed commands.
type MapHandler struct {
	catalog  view.Catalog
	preparer *world.Preparer
	builder  *scene.Builder
	viewers  *session.Manager
	registry *command.Registry
	renderer *ansi.Renderer
	defaults view.Defaults
	logger   *zap.Logger
}

// NewMapHandler creates a MapHandler.
//
// Precondition: all arguments must be non-nil; defaults.Source must be loaded in catalog.
// Postcondition: Returns a MapHandler ready to handle sessions.
func NewMapHandler(
	catalog view.Catalog,
	preparer *world.Preparer,
	builder *scene.Builder,
	viewers *session.Manager,
	renderer *ansi.Renderer,
	defaults view.Defaults,
	logger *zap.Logger,
) *MapHandler {
	return &MapHandler{
		catalog:  catalog,
		preparer: preparer,
		builder:  builder,
		viewers:  viewers,
		registry: command.DefaultRegistry(),
		renderer: renderer,
		defaults: defaults,
		logger:   logger,
	}
}

// HandleSession runs the command loop for one client until it quits, the
// connection fails, or ctx is cancelled.
//
// Postcondition: The viewer is unregistered when this method returns.
func (h *MapHandler) HandleSession(ctx context.Context, conn *telnet.Conn) error {
	remote := conn.RemoteAddr().String()
	b, err := h.newBrowser(remote)
	if err != nil {
		_ = conn.WriteLine("No maps are available.")
		return err
	}
	defer func() {
		if err := h.viewers.Remove(b.viewerID); err != nil {
			b.logger.Warn("removing viewer", zap.Error(err))
		}
	}()
	b.logger.Info("viewer connected")

	if err := b.draw(conn); err != nil {
		return fmt.Errorf("drawing map: %w", err)
	}
	_ = conn.WriteLine(welcome)

	for {
		if err := conn.WritePrompt(b.prompt()); err != nil {
			return fmt.Errorf("writing prompt: %w", err)
		}
		line, err := conn.ReadLine()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("reading input: %w", err)
		}

		r := b.execute(line)
		if r.redraw {
			if err := b.draw(conn); err != nil {
				return fmt.Errorf("drawing map: %w", err)
			}
		}
		if len(r.lines) > 0 {
			if err := conn.WriteLines(r.lines); err != nil {
				return fmt.Errorf("writing reply: %w", err)
			}
		}
		if r.quit {
			return nil
		}
	}
}

// browser is the per-connection state of the map browser.
type browser struct {
	h        *MapHandler
	view     *view.Session
	viewerID string
	logger   *zap.Logger
}

type reply struct {
	lines  []string
	redraw bool
	quit   bool
}

func (h *MapHandler) newBrowser(remote string) (*browser, error) {
	vs, err := view.NewSession(h.catalog, h.preparer, h.builder, h.logger, view.Initial("", h.defaults))
	if err != nil {
		return nil, err
	}
	st := vs.State()
	viewer, err := h.viewers.Add(session.SurfaceTelnet, remote, st.Source, st.AreaID, 0)
	if err != nil {
		return nil, err
	}
	return &browser{
		h:        h,
		view:     vs,
		viewerID: viewer.ID,
		logger:   h.logger.With(zap.String("viewer", viewer.ID), zap.String("remote_addr", remote)),
	}, nil
}

func (b *browser) draw(conn *telnet.Conn) error {
	cols, rows, _ := conn.Size()
	return conn.Write(telnet.Redraw(b.render(cols, rows)))
}

// render leaves the last terminal row for the prompt.
func (b *browser) render(cols, rows int) []string {
	return b.h.renderer.Render(b.view.Frame(), max(cols, 1), max(rows-2, 1))
}

func (b *browser) prompt() string {
	st := b.view.State()
	p := fmt.Sprintf("[%s #%s L%d]> ", st.Source, st.AreaID, st.Level)
	if b.h.renderer.Colors() {
		return stylePrompt.Sprint(p)
	}
	return p
}

// execute runs one input line.
func (b *browser) execute(line string) reply {
	parsed := command.Parse(line)
	if parsed.Command == "" {
		return reply{}
	}
	cmd, ok := b.h.registry.Resolve(parsed.Command)
	if !ok {
		return text(fmt.Sprintf("Unknown command %q. Type help for commands.", parsed.Command))
	}
	b.logger.Debug("command", zap.String("command", cmd.Name), zap.Strings("args", parsed.Args))

	fn, ok := commandMap[cmd.Handler]
	if !ok {
		return text(fmt.Sprintf("Command %q is not available here.", cmd.Name))
	}
	return fn(b, input{cmd: cmd, parsed: parsed})
}

