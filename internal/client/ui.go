package client

import (
	"bufio"
	"fmt"
	"net"
	"strings"

	"github.com/jroimartin/gocui"

	"github.com/parleychat/parley/internal/protocol"
)

// chatUI is the interactive client's terminal frontend: a scrolling
// messages view above a single-line input view.
type chatUI struct {
	gui  *gocui.Gui
	sock net.Conn

	username string

	msgView    string
	inputView  string
	statusView string
}

// RunInteractive connects to the server, registers the username, and
// hands the terminal over to the chat UI until the user quits or the
// server goes away. A disconnect frame is sent on the way out.
func RunInteractive(addr, username string) error {
	sock, err := net.Dial("tcp4", addr)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", addr, err)
	}
	defer sock.Close()

	if _, err := sock.Write(protocol.ClientUsername([]byte(username))); err != nil {
		return fmt.Errorf("registering username: %w", err)
	}

	g, err := gocui.NewGui(gocui.OutputNormal)
	if err != nil {
		return err
	}
	defer g.Close()

	ui := &chatUI{
		gui:        g,
		sock:       sock,
		username:   username,
		msgView:    "messages",
		inputView:  "input",
		statusView: "status",
	}

	g.SetManagerFunc(ui.layout)
	if err := ui.keybindings(); err != nil {
		return err
	}

	go ui.receive()

	if err := g.MainLoop(); err != nil && err != gocui.ErrQuit {
		return err
	}

	_, _ = sock.Write(protocol.ClientDisconnect())
	return nil
}

func (ui *chatUI) layout(g *gocui.Gui) error {
	maxX, maxY := g.Size()

	if v, err := g.SetView(ui.msgView, 0, 0, maxX-1, maxY-5); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "Messages"
		v.Wrap = true
		v.Autoscroll = true
	}

	if v, err := g.SetView(ui.statusView, 0, maxY-4, maxX-1, maxY-3); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Frame = false
		fmt.Fprintf(v, "connected as %s | type 'quit' or Ctrl-C to leave", ui.username)
	}

	if v, err := g.SetView(ui.inputView, 0, maxY-3, maxX-1, maxY-1); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "Input"
		v.Editable = true
		v.Wrap = true

		if _, err := g.SetCurrentView(ui.inputView); err != nil {
			return err
		}
	}

	return nil
}

func (ui *chatUI) keybindings() error {
	if err := ui.gui.SetKeybinding("", gocui.KeyCtrlC, gocui.ModNone,
		func(_ *gocui.Gui, _ *gocui.View) error {
			return gocui.ErrQuit
		}); err != nil {
		return err
	}

	return ui.gui.SetKeybinding(ui.inputView, gocui.KeyEnter, gocui.ModNone, ui.handleInput)
}

func (ui *chatUI) handleInput(_ *gocui.Gui, v *gocui.View) error {
	input := strings.TrimSpace(v.Buffer())
	v.Clear()
	if err := v.SetCursor(0, 0); err != nil {
		return err
	}

	if input == "" {
		return nil
	}
	if input == "quit" || input == "exit" {
		return gocui.ErrQuit
	}

	if _, err := ui.sock.Write(protocol.ClientChat([]byte(input))); err != nil {
		ui.appendLine(fmt.Sprintf("*** failed to send message: %s ***", err))
	}
	return nil
}

// receive decodes server notices and appends them to the messages view
// until the connection closes, at which point it quits the UI.
func (ui *chatUI) receive() {
	reader := bufio.NewReader(ui.sock)

	for {
		frame, err := reader.ReadBytes(protocol.Delimiter)
		if err != nil {
			ui.appendLine("*** connection closed by server ***")
			ui.gui.Update(func(*gocui.Gui) error {
				return gocui.ErrQuit
			})
			return
		}

		notice, err := protocol.ParseNotice(frame)
		if err != nil {
			continue
		}
		ui.appendLine(FormatNotice(notice))
	}
}

func (ui *chatUI) appendLine(line string) {
	ui.gui.Update(func(g *gocui.Gui) error {
		v, err := g.View(ui.msgView)
		if err != nil {
			return err
		}
		fmt.Fprintln(v, line)
		return nil
	})
}
