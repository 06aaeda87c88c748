package terminal

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collabide/server/internal/exec"
)

type fakeExec struct {
	result *exec.Result
	err    error
}

func (f *fakeExec) Submit(_ context.Context, _ string, _ int, _ string) (*exec.Result, error) {
	return f.result, f.err
}

func dialTerminal(t *testing.T, ctl *Controller) *websocket.Conn {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws/terminal", func(c *gin.Context) {
		ctl.HandleTerminal(context.Background(), c)
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/terminal"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })

	// Greeting frame.
	_, greeting, err := ws.ReadMessage()
	require.NoError(t, err)
	require.Contains(t, string(greeting), "Connection established")
	return ws
}

func readText(t *testing.T, ws *websocket.Conn) string {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := ws.ReadMessage()
	require.NoError(t, err)
	return string(data)
}

func TestTerminal_RunResults(t *testing.T) {
	tests := []struct {
		name   string
		result *exec.Result
		want   string
	}{
		{
			name:   "stdout",
			result: &exec.Result{Stdout: "Hello!\n"},
			want:   "Hello!",
		},
		{
			name:   "stderr",
			result: &exec.Result{Stderr: "boom\n"},
			want:   "Error:\nboom",
		},
		{
			name:   "compile error",
			result: &exec.Result{CompileOutput: "missing semicolon\n"},
			want:   "Compilation Error:\nmissing semicolon",
		},
		{
			name:   "no output",
			result: &exec.Result{},
			want:   "Execution completed with no output",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws := dialTerminal(t, &Controller{Exec: &fakeExec{result: tt.result}})

			require.NoError(t, ws.WriteJSON(map[string]string{"command": "print(1)", "language": "python"}))

			assert.Equal(t, tt.want, readText(t, ws))
		})
	}
}

func TestTerminal_BadRequests(t *testing.T) {
	ws := dialTerminal(t, &Controller{Exec: &fakeExec{result: &exec.Result{}}})

	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte("not json")))
	assert.Equal(t, "Error: Invalid JSON format", readText(t, ws))

	require.NoError(t, ws.WriteJSON(map[string]string{"command": "   "}))
	assert.Equal(t, "No code provided", readText(t, ws))

	require.NoError(t, ws.WriteJSON(map[string]string{"command": "x", "language": "cobol"}))
	assert.Contains(t, readText(t, ws), "Unsupported language 'cobol'")
}
