package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/phanxgames/sequence"
)

// settleLimit bounds how long the virtual clock runs to get every scope
// built.
const settleLimit = 5 * time.Second

func loadScene(path string, log *zap.Logger) (*sequence.Scene, *sequence.Mounted, error) {
	if path == "" {
		return nil, nil, errors.New("no document has been specified")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to read document: %w", err)
	}
	doc, err := sequence.LoadDocument(data)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid document '%s': %w", path, err)
	}

	scene := sequence.NewScene()
	scene.SetLogger(log)
	m, err := scene.Mount(doc)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to mount document '%s': %w", path, err)
	}
	scene.Settle(settleLimit)
	log.Debug("Document mounted", zap.String("path", path),
		zap.Int("nodes", len(m.Nodes)), zap.Int("timelines", scene.Registry().Len()))
	return scene, m, nil
}
