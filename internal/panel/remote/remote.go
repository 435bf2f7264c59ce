// Package remote mirrors panel operations to an external overlay renderer over WebSocket.
package remote

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/overlaykit/markers/internal/panel"
	"github.com/overlaykit/markers/pkg/core"
	"github.com/overlaykit/markers/pkg/streaming"
)

// Config holds renderer connection settings.
type Config struct {
	URL     string
	Secret  string
	Version string
}

// Host is a panel.Factory whose panels live in a remote renderer.
// Every operation is fire-and-forget; only the hello handshake waits for an ack.
type Host struct {
	conn *connection
	cfg  Config
}

func New(cfg Config, logger *slog.Logger) *Host {
	if logger == nil {
		logger = slog.Default()
	}
	return &Host{
		conn: newConnection(logger),
		cfg:  cfg,
	}
}

// Init connects and performs the hello handshake.
func (h *Host) Init() error {
	if err := h.conn.dial(h.cfg.URL, h.cfg.Secret); err != nil {
		return err
	}

	data, err := marshalEnvelope(streaming.TypeHello, streaming.HelloPayload{
		Client:         "markers",
		Version:        h.cfg.Version,
		ReferenceWidth: core.ReferenceWidth,
	})
	if err != nil {
		return err
	}

	h.conn.setHello(data)

	return h.conn.sendAndWait(data, streaming.TypeHello, ackTimeout)
}

func (h *Host) Close() error {
	return h.conn.close()
}

// CreatePanel announces a new panel to the renderer.
func (h *Host) CreatePanel(parent, name string) (panel.Panel, error) {
	if name == "" {
		return nil, panel.ErrEmptyName
	}
	if err := h.sendEnvelope(streaming.TypeCreatePanel, streaming.CreatePanelPayload{Parent: parent, Name: name}); err != nil {
		return nil, err
	}
	return &remotePanel{host: h, name: name}, nil
}

// marshalEnvelope builds a JSON-encoded Envelope from a message type and payload.
func marshalEnvelope(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	env := streaming.Envelope{Type: msgType, Payload: raw}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}

func (h *Host) sendEnvelope(msgType string, payload any) error {
	data, err := marshalEnvelope(msgType, payload)
	if err != nil {
		return err
	}
	h.conn.send(data)
	return nil
}

type remotePanel struct {
	host    *Host
	name    string
	mu      sync.Mutex
	deleted bool
}

func (p *remotePanel) Name() string { return p.name }

func (p *remotePanel) live() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.deleted
}

func (p *remotePanel) SetStyle(property, value string) {
	if !p.live() {
		return
	}
	p.emit(streaming.TypeSetStyle, streaming.SetStylePayload{Name: p.name, Property: property, Value: value})
}

func (p *remotePanel) AddClass(class string) {
	if !p.live() {
		return
	}
	p.emit(streaming.TypeAddClass, streaming.AddClassPayload{Name: p.name, Class: class})
}

func (p *remotePanel) Delete() {
	p.mu.Lock()
	if p.deleted {
		p.mu.Unlock()
		return
	}
	p.deleted = true
	p.mu.Unlock()
	p.emit(streaming.TypeDeletePanel, streaming.DeletePanelPayload{Name: p.name})
}

func (p *remotePanel) emit(msgType string, payload any) {
	if err := p.host.sendEnvelope(msgType, payload); err != nil {
		p.host.conn.logger.Warn("Failed to send panel operation", "type", msgType, "panel", p.name, "error", err)
	}
}
