package clients

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/options"
)

const TOKENIZER_FILE = "tokenizer.json"

// ErrModelNotONNX means a model directory lacks the files hugot loads.
var ErrModelNotONNX = errors.New("model needs an ONNX export (.onnx file) and a fast tokenizer (tokenizer.json)")

var (
	hugotInstance *hugot.Session
	hugotErr      error
	hugotOnce     sync.Once
	hugotMu       sync.Mutex
)

// GetHugotSession returns the process-wide onnxruntime session, creating it on
// first use. libraryPath points at libonnxruntime; empty uses hugot's default
// location. A failed creation is remembered and returned to every caller.
func GetHugotSession(libraryPath string) (*hugot.Session, error) {
	hugotOnce.Do(func() {
		slog.Info("[HugotClient] Initializing ORT session",
			slog.String("onnxruntime_lib", libraryPath))
		start := time.Now()

		var opts []options.WithOption
		if libraryPath != "" {
			opts = append(opts, options.WithOnnxLibraryPath(libraryPath))
		}

		session, err := hugot.NewORTSession(opts...)
		if err != nil {
			hugotErr = fmt.Errorf("[HugotClient] failed to create ORT session (set ONNXRUNTIME_LIB_PATH to libonnxruntime): %w", err)
			return
		}

		hugotMu.Lock()
		hugotInstance = session
		hugotMu.Unlock()
		slog.Info("[HugotClient] Session ready", slog.Duration("elapsed", time.Since(start)))
	})
	return hugotInstance, hugotErr
}

func CloseHugotSession() {
	hugotMu.Lock()
	defer hugotMu.Unlock()

	if hugotInstance == nil {
		return
	}
	if err := hugotInstance.Destroy(); err != nil {
		slog.Error("[HugotClient] Failed to destroy session", slog.String("error", err.Error()))
		return
	}
	hugotInstance = nil
	slog.Info("[HugotClient] Session destroyed")
}

// ModelDir is where a hub model id is stored under modelsDir. Ids that already
// point at an existing directory are used as-is.
func ModelDir(modelsDir, model string) string {
	if info, err := os.Stat(model); err == nil && info.IsDir() {
		return model
	}
	return filepath.Join(modelsDir, strings.ReplaceAll(model, "/", "_"))
}

// ValidateModelDir checks that dir holds an .onnx file and a tokenizer.json at
// its top level.
func ValidateModelDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read model dir %s: %w", dir, err)
	}

	var hasONNX, hasTokenizer bool
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch {
		case strings.HasSuffix(e.Name(), ".onnx"):
			hasONNX = true
		case e.Name() == TOKENIZER_FILE:
			hasTokenizer = true
		}
	}

	var missing []string
	if !hasONNX {
		missing = append(missing, ".onnx file")
	}
	if !hasTokenizer {
		missing = append(missing, TOKENIZER_FILE)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s is missing %s", ErrModelNotONNX, dir, strings.Join(missing, " and "))
	}
	return nil
}

// EnsureModel returns the local directory of model, downloading it from the
// Hugging Face hub first when it is missing and download is allowed. The
// directory must pass ValidateModelDir.
func EnsureModel(modelsDir, model, token string, download bool) (string, error) {
	dir := ModelDir(modelsDir, model)
	if _, err := os.Stat(dir); err == nil {
		if err := ValidateModelDir(dir); err != nil {
			return "", err
		}
		return dir, nil
	}

	if !download {
		return "", fmt.Errorf("model %s not found at %s (set HUGOT_DOWNLOAD=true or run fetch-models): %w",
			model, dir, ErrModelNotONNX)
	}

	if err := os.MkdirAll(modelsDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create models dir: %w", err)
	}

	slog.Info("[HugotClient] Downloading model",
		slog.String("model", model),
		slog.String("destination", modelsDir))
	start := time.Now()

	downloadOptions := hugot.NewDownloadOptions()
	if token != "" {
		downloadOptions.AuthToken = token
	}
	path, err := hugot.DownloadModel(model, modelsDir, downloadOptions)
	if err != nil {
		return "", fmt.Errorf("failed to download model %s, the hub repo must ship an ONNX export: %w: %w",
			model, ErrModelNotONNX, err)
	}
	if err := ValidateModelDir(path); err != nil {
		return "", err
	}

	slog.Info("[HugotClient] Model downloaded",
		slog.String("model", model),
		slog.String("path", path),
		slog.Duration("elapsed", time.Since(start)))
	return path, nil
}
