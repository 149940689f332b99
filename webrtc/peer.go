package webrtc

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/pion/webrtc/v3"
)

var ErrChannelNotOpen = errors.New("data channel not open")

// ICEConfig lists the STUN and TURN servers offered to peers.
type ICEConfig struct {
	STUNURLs       []string
	TURNURLs       []string
	TURNUsername   string
	TURNCredential string
}

// PeerHandler receives data channel events for one peer. Callbacks run on
// pion's goroutines.
type PeerHandler struct {
	OnOpen    func(p *PeerConnection)
	OnMessage func(p *PeerConnection, data []byte)
	OnClose   func(p *PeerConnection)
}

type PeerConnection struct {
	ID             string
	Name           string
	PeerConnection *webrtc.PeerConnection

	mu          sync.RWMutex
	dataChannel *webrtc.DataChannel
	closeOnce   sync.Once
	onClose     func(p *PeerConnection)
}

// Send writes b as a text message on the peer's data channel.
func (p *PeerConnection) Send(b []byte) error {
	p.mu.RLock()
	dc := p.dataChannel
	p.mu.RUnlock()

	if dc == nil || dc.ReadyState() != webrtc.DataChannelStateOpen {
		return ErrChannelNotOpen
	}
	return dc.SendText(string(b))
}

// closed fires the close callback once, whichever of channel close or ICE
// failure comes first.
func (p *PeerConnection) closed() {
	p.closeOnce.Do(func() {
		if p.onClose != nil {
			p.onClose(p)
		}
	})
}

type Manager struct {
	peers  map[string]*PeerConnection
	mutex  sync.RWMutex
	config webrtc.Configuration
}

func NewManager(ice ICEConfig) *Manager {
	return &Manager{
		peers:  make(map[string]*PeerConnection),
		config: iceConfiguration(ice),
	}
}

func (m *Manager) Configuration() webrtc.Configuration {
	return m.config
}

// CreatePeerConnection prepares a peer that accepts the data channel the
// remote side opens.
func (m *Manager) CreatePeerConnection(id, name string, handler PeerHandler) (*PeerConnection, error) {
	peerConnection, err := webrtc.NewPeerConnection(m.config)
	if err != nil {
		return nil, err
	}

	peer := &PeerConnection{
		ID:             id,
		Name:           name,
		PeerConnection: peerConnection,
		onClose: func(p *PeerConnection) {
			m.RemovePeer(p.ID)
			if handler.OnClose != nil {
				handler.OnClose(p)
			}
		},
	}

	peerConnection.OnICEConnectionStateChange(func(state webrtc.ICEConnectionState) {
		log.Printf("ICE Connection State for %s: %s", name, state.String())
		if state == webrtc.ICEConnectionStateDisconnected || state == webrtc.ICEConnectionStateFailed {
			log.Printf("ICE Connection failed for %s, removing peer", name)
			peer.closed()
		}
	})

	peerConnection.OnDataChannel(func(dc *webrtc.DataChannel) {
		peer.mu.Lock()
		if peer.dataChannel != nil {
			peer.mu.Unlock()
			log.Printf("Ignoring extra data channel %q from %s", dc.Label(), name)
			return
		}
		peer.dataChannel = dc
		peer.mu.Unlock()

		dc.OnOpen(func() {
			log.Printf("DataChannel opened for %s", name)
			if handler.OnOpen != nil {
				handler.OnOpen(peer)
			}
		})

		dc.OnMessage(func(msg webrtc.DataChannelMessage) {
			if handler.OnMessage != nil {
				handler.OnMessage(peer, msg.Data)
			}
		})

		dc.OnClose(func() {
			log.Printf("DataChannel closed for %s", name)
			peer.closed()
		})

		dc.OnError(func(err error) {
			log.Printf("DataChannel error for %s: %v", name, err)
		})
	})

	m.mutex.Lock()
	m.peers[id] = peer
	m.mutex.Unlock()

	return peer, nil
}

// Answer applies the remote offer and returns a complete answer once ICE
// gathering has finished, so no candidates need to be trickled.
func (m *Manager) Answer(ctx context.Context, peer *PeerConnection, offerSDP string) (*webrtc.SessionDescription, error) {
	pc := peer.PeerConnection

	if err := pc.SetRemoteDescription(webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: offerSDP}); err != nil {
		return nil, err
	}
	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		return nil, err
	}

	gathered := webrtc.GatheringCompletePromise(pc)
	if err := pc.SetLocalDescription(answer); err != nil {
		return nil, err
	}

	select {
	case <-gathered:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return pc.LocalDescription(), nil
}

func (m *Manager) GetPeer(id string) (*PeerConnection, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	peer, exists := m.peers[id]
	return peer, exists
}

func (m *Manager) RemovePeer(id string) {
	m.mutex.Lock()
	peer, exists := m.peers[id]
	delete(m.peers, id)
	m.mutex.Unlock()

	if exists && peer.PeerConnection != nil {
		if err := peer.PeerConnection.Close(); err != nil {
			log.Printf("Error closing peer %s: %v", id, err)
		}
	}
}

func (m *Manager) Len() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.peers)
}

// iceConfiguration returns the ICE server configuration with STUN and TURN servers
func iceConfiguration(ice ICEConfig) webrtc.Configuration {
	servers := make([]webrtc.ICEServer, 0, 2)
	if len(ice.STUNURLs) > 0 {
		servers = append(servers, webrtc.ICEServer{URLs: ice.STUNURLs})
	}
	if len(ice.TURNURLs) > 0 {
		servers = append(servers, webrtc.ICEServer{
			URLs:       ice.TURNURLs,
			Username:   ice.TURNUsername,
			Credential: ice.TURNCredential,
		})
	}
	return webrtc.Configuration{
		ICEServers:         servers,
		ICETransportPolicy: webrtc.ICETransportPolicyAll,
	}
}
