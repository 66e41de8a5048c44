package cli

import (
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"

	"github.com/tailorcv/tailorcv-cli/internal/client/workflow"
)

// loadFile reads path into memory and sniffs its MIME type from the content,
// so a mislabeled extension cannot slip past the file policies.
func loadFile(path string) (workflow.File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return workflow.File{}, err
	}
	return workflow.File{
		Name:     filepath.Base(path),
		MIMEType: mimetype.Detect(data).String(),
		Size:     int64(len(data)),
		Data:     data,
	}, nil
}
