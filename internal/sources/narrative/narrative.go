// Package narrative implements the adapter for the narrative question-
// answering service: a bidirectional streaming session over
// gorilla/websocket driven by an explicit state machine (Sending ->
// Receiving -> Done|Error|Timeout).
package narrative

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/solairus/aviation-brief/internal/config"
	"github.com/solairus/aviation-brief/internal/errs"
)

const (
	pingInterval = 20 * time.Second
	pingTimeout  = 10 * time.Second
	closeTimeout = 10 * time.Second
)

// RawPayload is the adapter-neutral raw material the narrative adapter emits
// per query, ready for normalization.
type RawPayload struct {
	Query       string
	Response    string
	Sources     []map[string]any
	Confidence  float64
}

// QueryParams parameterizes a single narrative query.
type QueryParams struct {
	Message        string
	UserID         string
	ConversationID string
	MaxResults     int
	MinScore       float64
	Timeout        time.Duration // default 120s
}

// Template names one query template the orchestrator issues against the
// narrative service; FollowUps are issued only if the primary result's
// confidence exceeds the gating threshold.
type Template struct {
	Name      string
	Priority  int
	Primary   string
	FollowUps []string
}

// Adapter is the narrative service client.
type Adapter struct {
	cfg    config.NarrativeConfig
	dial   func(ctx context.Context, url string, header map[string][]string) (*websocket.Conn, error)
}

// New constructs a narrative Adapter. If cfg is not Configured, callers
// should treat the source as unconfigured without invoking Query.
func New(cfg config.NarrativeConfig) *Adapter {
	return &Adapter{
		cfg: cfg,
		dial: func(ctx context.Context, url string, header map[string][]string) (*websocket.Conn, error) {
			dialer := websocket.Dialer{HandshakeTimeout: 15 * time.Second}
			conn, _, err := dialer.DialContext(ctx, url, header)
			return conn, err
		},
	}
}

// frame is the outbound query message shape.
type frame struct {
	Type       string           `json:"type"`
	Message    string           `json:"message,omitempty"`
	UserID     string           `json:"user_id,omitempty"`
	ConvID     string           `json:"conversation_id,omitempty"`
	MaxResults int              `json:"max_results,omitempty"`
	MinScore   float64          `json:"min_score,omitempty"`
	Content    string           `json:"content,omitempty"`
	Sources    []map[string]any `json:"sources,omitempty"`
}

type errorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// sessionState is the explicit protocol state machine driving one query.
type sessionState int

const (
	stateSending sessionState = iota
	stateReceiving
	stateDone
	stateError
	stateTimeout
)

// Query runs one narrative query to completion: open, send, receive-dispatch
// loop, close. It never retries internally; retry is the caller's
// responsibility via internal/retry with retry.NarrativePolicy.
func (a *Adapter) Query(ctx context.Context, p QueryParams) (RawPayload, error) {
	if !a.cfg.Configured() {
		return RawPayload{}, errs.Unconfigured("narrative: missing credentials")
	}

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	queryCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	header := map[string][]string{
		"Authorization": {"Bearer " + a.cfg.BearerToken},
	}
	if a.cfg.SecondaryKey != "" {
		header["X-Api-Key"] = []string{a.cfg.SecondaryKey}
	}

	conn, err := a.dial(queryCtx, a.cfg.BaseURL, header)
	if err != nil {
		return RawPayload{}, errs.Transient("narrative: dial", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadlineFrom(closeCtx))
		_ = conn.Close()
	}()

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pingInterval + pingTimeout))
	})
	_ = conn.SetReadDeadline(time.Now().Add(pingInterval + pingTimeout))

	state := stateSending
	query := frame{
		Type:       "query",
		Message:    p.Message,
		UserID:     p.UserID,
		ConvID:     p.ConversationID,
		MaxResults: p.MaxResults,
		MinScore:   p.MinScore,
	}
	if err := conn.WriteJSON(query); err != nil {
		return RawPayload{}, errs.Transient("narrative: send query", err)
	}
	state = stateReceiving

	return a.receiveLoop(queryCtx, conn, state, p)
}

func deadlineFrom(ctx context.Context) time.Time {
	if dl, ok := ctx.Deadline(); ok {
		return dl
	}
	return time.Now().Add(closeTimeout)
}

func (a *Adapter) receiveLoop(ctx context.Context, conn *websocket.Conn, state sessionState, p QueryParams) (RawPayload, error) {
	var buf []byte
	var payload RawPayload

	stopPing := a.startKeepalive(ctx, conn)
	defer stopPing()

	frames := make(chan []byte)
	readErrs := make(chan error, 1)
	go func() {
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				readErrs <- err
				return
			}
			select {
			case frames <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	for {
		select {
		case <-ctx.Done():
			state = stateTimeout
			return payload, errs.Transient("narrative: query timed out", ctx.Err())

		case err := <-readErrs:
			return payload, errs.Transient("narrative: read", err)

		case msg := <-frames:
			var generic map[string]any
			if err := json.Unmarshal(msg, &generic); err != nil {
				return payload, errs.Parse("narrative: decode frame", err)
			}
			typ, _ := generic["type"].(string)

			switch typ {
			case "text", "chunk", "delta":
				content, _ := generic["content"].(string)
				buf = append(buf, []byte(content)...)

			case "sources":
				if raw, ok := generic["sources"].([]any); ok {
					for _, s := range raw {
						if m, ok := s.(map[string]any); ok {
							payload.Sources = append(payload.Sources, m)
						}
					}
				}

			case "done", "complete":
				state = stateDone
				payload.Query = p.Message
				payload.Response = string(buf)
				payload.Confidence = confidenceFor(payload)
				return payload, nil

			case "error":
				state = stateError
				var ef errorFrame
				_ = json.Unmarshal(msg, &ef)
				return payload, errs.Transient("narrative: server error", fmt.Errorf("%s", ef.Message))
			}
		}
	}
}

// startKeepalive pings the connection on pingInterval and fails the session
// if a pong is not observed within pingTimeout of the most recent ping.
func (a *Adapter) startKeepalive(ctx context.Context, conn *websocket.Conn) func() {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				_ = conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(pingTimeout))
			}
		}
	}()
	return func() { close(done) }
}

// confidenceFor computes the narrative adapter's per-response confidence
// contribution: tiered length, provenance presence, structural markers,
// quality lexemes, capped at 1.0.
func confidenceFor(p RawPayload) float64 {
	score := 0.0
	n := len(p.Response)

	switch {
	case n >= 1000:
		score += 0.3
	case n >= 500:
		score += 0.2
	case n >= 100:
		score += 0.1
	}

	if len(p.Sources) > 0 {
		score += 0.2
	}

	if containsStructuralMarkers(p.Response) {
		score += 0.2
	}

	if containsQualityLexeme(p.Response) {
		score += 0.2
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

var qualityLexemes = []string{
	"forecast", "analysis", "significant", "impact", "risk", "outlook",
}

func containsQualityLexeme(s string) bool {
	lower := strings.ToLower(s)
	for _, lex := range qualityLexemes {
		if strings.Contains(lower, lex) {
			return true
		}
	}
	return false
}

func containsStructuralMarkers(s string) bool {
	markers := []string{"\n- ", "\n• ", "\n1.", "\n2."}
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
