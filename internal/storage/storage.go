// Package storage handles disk space checking and cache directory maintenance.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

var log = logrus.New()

// SetLogger replaces the package-level logger.
func SetLogger(l *logrus.Logger) { log = l }

// CheckFreeSpaceWithRetry checks available disk space with retries.
func CheckFreeSpaceWithRetry(path string, minFreeBytes uint64, retries int, retryDelay time.Duration) error {
	var lastErr error
	for i := 0; i < retries; i++ {
		if i > 0 {
			time.Sleep(retryDelay)
		}
		err := CheckStorageSpace(path, minFreeBytes)
		if err == nil {
			return nil
		}
		lastErr = err
		log.Warnf("Storage space check attempt %d/%d failed: %v", i+1, retries, err)
	}
	return fmt.Errorf("storage space check failed after %d attempts: %v", retries, lastErr)
}

// CheckStorageSpace checks if there is enough free disk space.
func CheckStorageSpace(path string, minFreeBytes uint64) error {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return fmt.Errorf("failed to check storage space: %w", err)
	}
	availableBytes := stat.Bavail * uint64(stat.Bsize)
	if availableBytes < minFreeBytes {
		return fmt.Errorf("insufficient storage space: %d bytes available, %d bytes required",
			availableBytes, minFreeBytes)
	}
	return nil
}

// HandleFileCleanup removes files older than the specified TTL.
func HandleFileCleanup(directory string, ttl time.Duration) {
	err := filepath.Walk(directory, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && time.Since(info.ModTime()) > ttl {
			if removeErr := os.Remove(path); removeErr != nil {
				log.Warnf("Failed to remove expired file %s: %v", path, removeErr)
			} else {
				log.Infof("Removed expired file: %s", path)
			}
		}
		return nil
	})
	if err != nil {
		log.Errorf("Error during file cleanup: %v", err)
	}
}
