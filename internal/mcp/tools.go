// Package mcp exposes the engine as Model Context Protocol tools so an
// assistant can play or configure the game.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jaminalder/retro-tic-tac-toe/internal/app"
)

// Tools binds MCP tool handlers to an engine.
type Tools struct {
	eng *app.Engine
	srv *server.MCPServer
}

// New builds the MCP server with all tools registered.
func New(e *app.Engine, version string) *Tools {
	t := &Tools{eng: e}
	t.srv = server.NewMCPServer(
		"Retro Tic-Tac-Toe",
		version,
		server.WithToolCapabilities(true),
		server.WithInstructions(`Retro Tic-Tac-Toe

Cells are numbered 0-8, left to right, top to bottom.
In "ai" mode you play player 1 and the opponent answers after a short delay.
Optional rules: eraser (clear an opponent cell), switch (capture an opponent
cell), speed (each turn has a time limit).

TOOLS:
- game_state: board, turn, scores and rules
- move: play a cell with action place, erase, switch or tap
- new_game: clear the board, keep scores
- set_mode: ai or player
- set_symbols: pick both players' symbols
- toggle_rule: flip eraser, switch or speed`),
	)
	t.register()
	return t
}

// Server returns the underlying MCP server.
func (t *Tools) Server() *server.MCPServer { return t.srv }

// ServeStdio runs the MCP stdio transport until stdin closes.
func (t *Tools) ServeStdio() error { return server.ServeStdio(t.srv) }

// Handler serves single JSON-RPC messages over HTTP POST.
func (t *Tools) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "failed to read request", http.StatusBadRequest)
			return
		}
		resp := t.srv.HandleMessage(r.Context(), body)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})
}

func (t *Tools) register() {
	t.srv.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current board, turn, scores and rules",
		InputSchema: mcp.ToolInputSchema{Type: "object", Properties: map[string]interface{}{}},
	}, t.handleGameState)

	t.srv.AddTool(mcp.Tool{
		Name:        "move",
		Description: "Play a cell for the player whose turn it is",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"index": map[string]interface{}{
					"type":        "integer",
					"description": "Cell index 0-8",
				},
				"action": map[string]interface{}{
					"type":        "string",
					"description": "place (default), erase, switch or tap",
					"enum":        []string{"place", "erase", "switch", "tap"},
				},
			},
			Required: []string{"index"},
		},
	}, t.handleMove)

	t.srv.AddTool(mcp.Tool{
		Name:        "new_game",
		Description: "Clear the board and start a new match. Scores are kept",
		InputSchema: mcp.ToolInputSchema{Type: "object", Properties: map[string]interface{}{}},
	}, t.handleNewGame)

	t.srv.AddTool(mcp.Tool{
		Name:        "set_mode",
		Description: "Play against the computer (ai) or two players on one device (player)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"mode": map[string]interface{}{
					"type": "string",
					"enum": []string{string(app.ModeAI), string(app.ModePlayer)},
				},
			},
			Required: []string{"mode"},
		},
	}, t.handleSetMode)

	t.srv.AddTool(mcp.Tool{
		Name:        "set_symbols",
		Description: "Set both players' symbols. A letter is upper-cased, an emoji is kept",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"player1": map[string]interface{}{"type": "string"},
				"player2": map[string]interface{}{"type": "string"},
			},
			Required: []string{"player1", "player2"},
		},
	}, t.handleSetSymbols)

	t.srv.AddTool(mcp.Tool{
		Name:        "toggle_rule",
		Description: "Turn an optional rule on or off",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"rule": map[string]interface{}{
					"type": "string",
					"enum": []string{"eraser", "switch", "speed"},
				},
			},
			Required: []string{"rule"},
		},
	}, t.handleToggleRule)
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	return args
}

func (t *Tools) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(formatState(t.eng.State())), nil
}

func (t *Tools) handleMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	n, ok := args["index"].(float64)
	if !ok {
		return mcp.NewToolResultError("index is required"), nil
	}
	if n != math.Trunc(n) || n < 0 || n > 8 {
		return mcp.NewToolResultError(fmt.Sprintf("index must be a whole number 0-8, got %v", n)), nil
	}
	idx := int(n)
	action, _ := args["action"].(string)
	var accepted bool
	switch action {
	case "", "place":
		accepted = t.eng.Place(idx)
	case "erase":
		accepted = t.eng.Erase(idx)
	case "switch":
		accepted = t.eng.Switch(idx)
	case "tap":
		accepted = t.eng.Tap(idx)
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown action %q", action)), nil
	}
	if !accepted {
		return mcp.NewToolResultError(fmt.Sprintf("move not allowed: %s %d\n\n%s", action, idx, formatState(t.eng.State()))), nil
	}
	return mcp.NewToolResultText(formatState(t.eng.State())), nil
}

func (t *Tools) handleNewGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t.eng.ResetGame()
	return mcp.NewToolResultText(formatState(t.eng.State())), nil
}

func (t *Tools) handleSetMode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, _ := arguments(request)["mode"].(string)
	m, err := app.ParseMode(s)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := t.eng.ChangeGameMode(m); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatState(t.eng.State())), nil
}

func (t *Tools) handleSetSymbols(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	p1, _ := args["player1"].(string)
	p2, _ := args["player2"].(string)
	if !t.eng.ChangeSymbols(p1, p2) {
		return mcp.NewToolResultError("symbols must differ"), nil
	}
	return mcp.NewToolResultText(formatState(t.eng.State())), nil
}

func (t *Tools) handleToggleRule(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rule, _ := arguments(request)["rule"].(string)
	var on bool
	switch rule {
	case "eraser":
		on = t.eng.ToggleEraser()
	case "switch":
		on = t.eng.ToggleSwitch()
	case "speed":
		on = t.eng.ToggleSpeed()
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown rule %q", rule)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s: %s", rule, onOff(on))), nil
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func formatState(st app.State) string {
	var b strings.Builder
	for r := 0; r < 3; r++ {
		if r > 0 {
			b.WriteString("---+---+---\n")
		}
		cells := make([]string, 3)
		for c := 0; c < 3; c++ {
			i := r*3 + c
			if s := st.Board[i]; s != "" {
				cells[c] = " " + s + " "
			} else {
				cells[c] = fmt.Sprintf("(%d)", i)
			}
		}
		b.WriteString(strings.Join(cells, "|") + "\n")
	}
	b.WriteString("\n")
	switch st.Result {
	case "won":
		fmt.Fprintf(&b, "Result: %s wins\n", st.Winner)
	case "draw":
		b.WriteString("Result: draw\n")
	default:
		fmt.Fprintf(&b, "Turn: %s (%s)\n", st.TurnSymbol, st.Turn)
		if st.Thinking {
			b.WriteString("Opponent is thinking\n")
		}
	}
	fmt.Fprintf(&b, "Score: %s %d - %d %s (games %d)\n", st.Player1Symbol, st.Player1Score, st.Player2Score, st.Player2Symbol, st.GamesPlayed)
	fmt.Fprintf(&b, "Mode: %s\n", st.Mode)
	fmt.Fprintf(&b, "Rules: eraser %s, switch %s, speed %s\n", onOff(st.Rules.Eraser), onOff(st.Rules.Switch), onOff(st.Rules.Speed))
	return b.String()
}
