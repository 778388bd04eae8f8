// Package rtc builds the ICE configuration browsers feed into their
// RTCPeerConnection. Media never touches this server; all it contributes to
// call quality is pointing peers at the right STUN/TURN infrastructure.
package rtc

import (
	"github.com/pion/webrtc/v4"

	"github.com/Alexxandr133/JungAI-sub002/internal/config"
)

// ICEServers assembles the server list from config. TURN is optional and
// only included when a URL is configured.
func ICEServers(cfg *config.Config) []webrtc.ICEServer {
	servers := make([]webrtc.ICEServer, 0, 2)
	if len(cfg.STUNURLs) > 0 {
		servers = append(servers, webrtc.ICEServer{URLs: cfg.STUNURLs})
	}
	if cfg.TURNURL != "" {
		servers = append(servers, webrtc.ICEServer{
			URLs:           []string{cfg.TURNURL},
			Username:       cfg.TURNUsername,
			Credential:     cfg.TURNCredential,
			CredentialType: webrtc.ICECredentialTypePassword,
		})
	}
	return servers
}

// Configuration wraps the server list in the shape RTCPeerConnection takes.
func Configuration(cfg *config.Config) webrtc.Configuration {
	return webrtc.Configuration{ICEServers: ICEServers(cfg)}
}
