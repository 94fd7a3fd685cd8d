package main

import (
	"fmt"
	"io"
	"os"

	"github.com/GriffinCanCode/playground/internal/shared/utils"
)

// readSource reads the file named by args, or stdin for none or "-", and
// decodes it the way the server decodes uploads
func readSource(args []string, stdin io.Reader) (string, error) {
	name, data, err := readRaw(args, stdin)
	if err != nil {
		return "", err
	}
	upload, err := utils.DecodeUpload(data, utils.MaxSourceSize)
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return upload.Source, nil
}

func readRaw(args []string, stdin io.Reader) (string, []byte, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(io.LimitReader(stdin, utils.MaxSourceSize+1))
		return "stdin", data, err
	}
	data, err := os.ReadFile(args[0])
	return args[0], data, err
}
