// Package terminal exposes the code-execution passthrough socket: each
// inbound frame is a run request forwarded to the sandbox, each outbound
// frame is its plain-text result.
package terminal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"collabide/server/internal/exec"
)

const defaultExecTimeout = 30 * time.Second

type Controller struct {
	Exec    exec.Client
	Timeout time.Duration
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type runRequest struct {
	Command  string `json:"command"`
	Language string `json:"language"`
	Input    string `json:"input"`
}

// HandleTerminal runs the request/response loop on one goroutine. The
// sandbox call is the only place in the server a timeout is enforced.
func (ctl *Controller) HandleTerminal(ctx context.Context, c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "terminal").Msg("ws upgrade")
		return
	}
	defer ws.Close()

	ctl.sendText(ws, "Connection established to code execution service")

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			log.Info().Err(err).Str("module", "terminal").Msg("terminal session closed")
			return
		}

		var req runRequest
		if err := json.Unmarshal(data, &req); err != nil {
			ctl.sendText(ws, "Error: Invalid JSON format")
			continue
		}
		if strings.TrimSpace(req.Command) == "" {
			ctl.sendText(ws, "No code provided")
			continue
		}
		if req.Language == "" {
			req.Language = "python"
		}
		langID, ok := exec.LanguageIDs[req.Language]
		if !ok {
			ctl.sendText(ws, fmt.Sprintf("Error: Unsupported language '%s'. Supported languages: %s", req.Language, supportedLanguages()))
			continue
		}

		runCtx, cancel := context.WithTimeout(ctx, ctl.execTimeout())
		result, err := ctl.Exec.Submit(runCtx, req.Command, langID, req.Input)
		cancel()
		if err != nil {
			log.Error().Err(err).Str("module", "terminal").Msg("sandbox submission failed")
			ctl.sendText(ws, "Server error: "+err.Error())
			continue
		}

		switch {
		case result.Stdout != "":
			ctl.sendText(ws, strings.TrimRight(result.Stdout, "\n"))
		case result.Stderr != "":
			ctl.sendText(ws, "Error:\n"+strings.TrimRight(result.Stderr, "\n"))
		case result.CompileOutput != "":
			ctl.sendText(ws, "Compilation Error:\n"+strings.TrimRight(result.CompileOutput, "\n"))
		default:
			ctl.sendText(ws, "Execution completed with no output")
		}
	}
}

func (ctl *Controller) execTimeout() time.Duration {
	if ctl.Timeout > 0 {
		return ctl.Timeout
	}
	return defaultExecTimeout
}

func (ctl *Controller) sendText(ws *websocket.Conn, text string) {
	if err := ws.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
		log.Warn().Err(err).Str("module", "terminal").Msg("write failed")
	}
}

func supportedLanguages() string {
	names := make([]string, 0, len(exec.LanguageIDs))
	for name := range exec.LanguageIDs {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
