package main

import (
	"context"

	"go.uber.org/zap"

	"osumap/library"
)

// Fail logs a file that could not be decoded and, when a library is open,
// records it there so later runs can list it.
func Fail(ctx context.Context, lib *library.Library, log *zap.Logger, path string, reason error) {
	log.Warn("beatmap failed", zap.String("path", path), zap.Error(reason))
	if lib == nil {
		return
	}
	if err := lib.RecordFailure(ctx, path, reason.Error()); err != nil {
		log.Error("failed to record failure", zap.String("path", path), zap.Error(err))
	}
}
