// Package scanning handles ClamAV malware scanning of request payloads.
package scanning

import (
	"bytes"
	"fmt"
	"io"

	"github.com/dutchcoders/go-clamd"
	"github.com/sirupsen/logrus"

	"git.uuxo.net/uuxo/mime-resolver/internal/config"
	"git.uuxo.net/uuxo/mime-resolver/internal/utils"
)

var log = logrus.New()

// SetLogger replaces the package-level logger.
func SetLogger(l *logrus.Logger) { log = l }

// Global ClamAV client
var ClamClient *clamd.Clamd

var (
	maxScanSize int64
	scanSem     chan struct{}
)

// InitClamAV initializes the ClamAV connection.
func InitClamAV(cfg *config.ClamAVConfig) error {
	if !cfg.ClamAVEnabled {
		log.Info("ClamAV scanning disabled")
		return nil
	}

	client := clamd.NewClamd(cfg.ClamAVSocket)

	// Test connection
	if err := client.Ping(); err != nil {
		return fmt.Errorf("ClamAV connection failed: %w", err)
	}

	if cfg.MaxScanSize != "" {
		size, err := utils.ParseSize(cfg.MaxScanSize)
		if err != nil {
			return fmt.Errorf("invalid max_scan_size: %w", err)
		}
		maxScanSize = size
	}

	workers := cfg.NumScanWorkers
	if workers <= 0 {
		workers = 2
	}
	scanSem = make(chan struct{}, workers)

	ClamClient = client
	log.Infof("ClamAV initialized: %s (%d scan workers)", cfg.ClamAVSocket, workers)
	return nil
}

// ScanBytes scans an in-memory payload and returns true if clean.
// Payloads over the configured max scan size are skipped, not rejected.
func ScanBytes(data []byte) (bool, error) {
	if ClamClient == nil {
		return true, nil
	}
	if maxScanSize > 0 && int64(len(data)) > maxScanSize {
		log.Debugf("ClamAV: payload of %d bytes exceeds max scan size, skipping", len(data))
		return true, nil
	}
	return ScanReader(bytes.NewReader(data))
}

// ScanReader streams r to ClamAV and returns true if clean.
func ScanReader(r io.Reader) (bool, error) {
	if ClamClient == nil {
		return true, nil
	}

	if scanSem != nil {
		scanSem <- struct{}{}
		defer func() { <-scanSem }()
	}

	response, err := ClamClient.ScanStream(r, make(chan bool))
	if err != nil {
		return false, fmt.Errorf("ClamAV scan error: %w", err)
	}

	for s := range response {
		if s.Status == clamd.RES_FOUND {
			log.Warnf("ClamAV: threat found: %s", s.Description)
			return false, fmt.Errorf("virus found: %s", s.Description)
		}
		if s.Status == clamd.RES_ERROR {
			log.Errorf("ClamAV scan error: %s", s.Description)
			return false, fmt.Errorf("scan error: %s", s.Description)
		}
	}

	log.Debug("ClamAV: payload is clean")
	return true, nil
}
