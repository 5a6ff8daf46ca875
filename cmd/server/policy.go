// policy.go - Resolved-type policy enforcement for codec requests.

package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"git.uuxo.net/uuxo/mime-resolver/internal/config"
	"git.uuxo.net/uuxo/mime-resolver/internal/mediatype"
	"git.uuxo.net/uuxo/mime-resolver/internal/utils"
)

// PolicyError represents a policy rejection.
type PolicyError struct {
	Code         string `json:"error"`
	Message      string `json:"message"`
	DetectedType string `json:"detected_type,omitempty"`
}

func (e *PolicyError) Error() string {
	return e.Message
}

// ContentPolicy gates resolved types against allow/block lists.
type ContentPolicy struct {
	config        *config.PolicyConfig
	allowedTypes  map[string]bool
	blockedTypes  map[string]bool
	wildcardAllow []string
	wildcardBlock []string
	maxPayload    int64
}

var (
	contentPolicy *ContentPolicy
	policyOnce    sync.Once
)

// InitContentPolicy initializes the content policy.
func InitContentPolicy(cfg *config.PolicyConfig) {
	policyOnce.Do(func() {
		p := &ContentPolicy{
			config:        cfg,
			allowedTypes:  make(map[string]bool),
			blockedTypes:  make(map[string]bool),
			wildcardAllow: []string{},
			wildcardBlock: []string{},
		}

		for _, t := range cfg.AllowedTypes {
			t = strings.ToLower(strings.TrimSpace(t))
			if strings.HasSuffix(t, "/*") {
				p.wildcardAllow = append(p.wildcardAllow, strings.TrimSuffix(t, "/*"))
			} else {
				p.allowedTypes[t] = true
			}
		}

		for _, t := range cfg.BlockedTypes {
			t = strings.ToLower(strings.TrimSpace(t))
			if strings.HasSuffix(t, "/*") {
				p.wildcardBlock = append(p.wildcardBlock, strings.TrimSuffix(t, "/*"))
			} else {
				p.blockedTypes[t] = true
			}
		}

		if cfg.MaxPayloadSize != "" {
			if size, err := utils.ParseSize(cfg.MaxPayloadSize); err == nil {
				p.maxPayload = size
			} else {
				log.Warnf("Invalid max_payload_size %q, payload cap disabled: %v", cfg.MaxPayloadSize, err)
			}
		}

		contentPolicy = p
		log.Infof("Content policy initialized: allowed=%d types, blocked=%d types, strict=%v",
			len(cfg.AllowedTypes), len(cfg.BlockedTypes), cfg.StrictMode)
	})
}

// GetContentPolicy returns the singleton content policy.
func GetContentPolicy() *ContentPolicy {
	return contentPolicy
}

// isTypeAllowed checks if a media type is in the allowed list.
func (p *ContentPolicy) isTypeAllowed(essence string) bool {
	// If no allowed types configured, allow all (except blocked)
	if len(p.allowedTypes) == 0 && len(p.wildcardAllow) == 0 {
		return true
	}

	if p.allowedTypes[essence] {
		return true
	}

	for _, prefix := range p.wildcardAllow {
		if strings.HasPrefix(essence, prefix+"/") {
			return true
		}
	}

	return false
}

// isTypeBlocked checks if a media type is in the blocked list.
func (p *ContentPolicy) isTypeBlocked(essence string) bool {
	if p.blockedTypes[essence] {
		return true
	}

	for _, prefix := range p.wildcardBlock {
		if strings.HasPrefix(essence, prefix+"/") {
			return true
		}
	}

	return false
}

// Check validates a resolved type against the policy. Parameters are
// ignored; only the main/sub pair is compared.
func (p *ContentPolicy) Check(t mediatype.Type) *PolicyError {
	if p == nil {
		return nil
	}

	essence := strings.ToLower(t.Main + "/" + t.Sub)

	// Blocked wins over allowed
	if p.isTypeBlocked(essence) {
		return &PolicyError{
			Code:         "content_type_blocked",
			Message:      fmt.Sprintf("Type %s is blocked", essence),
			DetectedType: essence,
		}
	}

	if !p.isTypeAllowed(essence) {
		return &PolicyError{
			Code:         "content_type_rejected",
			Message:      fmt.Sprintf("Type %s is not allowed", essence),
			DetectedType: essence,
		}
	}

	return nil
}

// CheckSize validates a payload size against the configured cap.
func (p *ContentPolicy) CheckSize(n int64) *PolicyError {
	if p == nil || p.maxPayload <= 0 || n <= p.maxPayload {
		return nil
	}
	return &PolicyError{
		Code:    "payload_too_large",
		Message: fmt.Sprintf("Payload of %s exceeds limit of %s", utils.FormatBytes(n), utils.FormatBytes(p.maxPayload)),
	}
}

// Strict reports whether undetectable content must be rejected.
func (p *ContentPolicy) Strict() bool {
	return p != nil && p.config.StrictMode
}

// WritePolicyError writes a policy error response.
func WritePolicyError(w http.ResponseWriter, perr *PolicyError) {
	status := http.StatusUnsupportedMediaType
	if perr.Code == "payload_too_large" {
		status = http.StatusRequestEntityTooLarge
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(perr)
}

// DefaultPolicyConfig returns default policy configuration.
func DefaultPolicyConfig() config.PolicyConfig {
	return config.PolicyConfig{
		AllowedTypes: []string{
			"image/*",
			"video/*",
			"audio/*",
			"font/*",
			"application/pdf",
			"application/json",
			"application/xml",
			"application/zip",
			"application/gzip",
			"application/x-7z-compressed",
			"text/*",
		},
		BlockedTypes: []string{
			"application/x-executable",
			"application/x-msdos-program",
			"text/x-shellscript",
		},
		MaxPayloadSize: "10MB",
		StrictMode:     false,
	}
}
