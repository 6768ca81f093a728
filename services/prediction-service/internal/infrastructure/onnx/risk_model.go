// Package onnx runs the exported risk network with ONNX Runtime.
package onnx

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/rwrrioe/integrity/services/prediction-service/internal/domain/model"
)

// Config locates the model and describes its graph.
type Config struct {
	ModelPath         string
	InputName         string
	OutputName        string
	SharedLibraryPath string
	IntraOpThreads    int
}

var initOnce sync.Once

// RiskModel wraps a dynamic ONNX session taking [N,9] float32 rows and
// producing [N,1] float32 logits. Tensors are allocated per call, so the
// session is the only shared state.
type RiskModel struct {
	session    *ort.DynamicAdvancedSession
	inputName  string
	outputName string
}

// Load validates the model file, initializes the runtime and opens a session.
// A successful Load has already run one probe inference.
func Load(cfg Config) (*RiskModel, error) {
	if cfg.ModelPath == "" {
		return nil, errors.New("model path is empty")
	}
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("model file missing at %s: %w", cfg.ModelPath, err)
	}
	if cfg.InputName == "" {
		cfg.InputName = "input"
	}
	if cfg.OutputName == "" {
		cfg.OutputName = "output"
	}

	if err := initRuntime(cfg.SharedLibraryPath, filepath.Dir(cfg.ModelPath)); err != nil {
		return nil, err
	}

	if err := checkGraph(cfg); err != nil {
		return nil, err
	}

	var opts *ort.SessionOptions
	if cfg.IntraOpThreads > 0 {
		o, err := ort.NewSessionOptions()
		if err != nil {
			return nil, fmt.Errorf("create session options: %w", err)
		}
		defer o.Destroy()
		if err := o.SetIntraOpNumThreads(cfg.IntraOpThreads); err != nil {
			return nil, fmt.Errorf("set intra threads: %w", err)
		}
		opts = o
	}

	session, err := ort.NewDynamicAdvancedSession(
		cfg.ModelPath,
		[]string{cfg.InputName},
		[]string{cfg.OutputName},
		opts,
	)
	if err != nil {
		return nil, fmt.Errorf("create onnx session: %w", err)
	}

	m := &RiskModel{
		session:    session,
		inputName:  cfg.InputName,
		outputName: cfg.OutputName,
	}

	if _, err := m.Logits(context.Background(), []model.FeatureVector{{}}); err != nil {
		_ = session.Destroy()
		return nil, fmt.Errorf("probe inference: %w", err)
	}

	return m, nil
}

// Logits runs one forward pass over rows.
func (m *RiskModel) Logits(ctx context.Context, rows []model.FeatureVector) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []float64{}, nil
	}

	data := make([]float32, 0, len(rows)*model.NumFeatures)
	for _, row := range rows {
		for _, v := range row {
			data = append(data, float32(v))
		}
	}

	input, err := ort.NewTensor(ort.NewShape(int64(len(rows)), model.NumFeatures), data)
	if err != nil {
		return nil, fmt.Errorf("allocate input tensor: %w", err)
	}
	defer input.Destroy()

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(int64(len(rows)), 1))
	if err != nil {
		return nil, fmt.Errorf("allocate output tensor: %w", err)
	}
	defer output.Destroy()

	if err := m.session.Run([]ort.Value{input}, []ort.Value{output}); err != nil {
		return nil, fmt.Errorf("run onnx session: %w", err)
	}

	raw := output.GetData()
	if len(raw) != len(rows) {
		return nil, fmt.Errorf("model produced %d values for %d rows", len(raw), len(rows))
	}

	logits := make([]float64, len(raw))
	for i, v := range raw {
		logits[i] = float64(v)
	}
	return logits, nil
}

// Ready reports whether the session is open.
func (m *RiskModel) Ready() error {
	if m == nil || m.session == nil {
		return errors.New("risk model session is not open")
	}
	return nil
}

// Close releases the session.
func (m *RiskModel) Close() error {
	if m == nil || m.session == nil {
		return nil
	}
	return m.session.Destroy()
}

func initRuntime(explicitPath, modelDir string) error {
	var initErr error
	initOnce.Do(func() {
		libPath := explicitPath
		if libPath == "" {
			libPath = resolveSharedLibraryPath(modelDir)
		}
		if libPath == "" {
			initErr = errors.New("onnxruntime shared library not found; set ONNXRUNTIME_SHARED_LIBRARY_PATH or install the runtime")
			return
		}
		ort.SetSharedLibraryPath(libPath)
		if !ort.IsInitialized() {
			if err := ort.InitializeEnvironment(); err != nil {
				initErr = fmt.Errorf("initialize onnxruntime: %w", err)
			}
		}
	})
	if initErr != nil {
		return initErr
	}
	if !ort.IsInitialized() {
		return errors.New("onnxruntime is not initialized")
	}
	return nil
}

// checkGraph confirms the configured tensor names exist and the input takes
// nine features.
func checkGraph(cfg Config) error {
	inputs, outputs, err := ort.GetInputOutputInfo(cfg.ModelPath)
	if err != nil {
		return fmt.Errorf("read model graph: %w", err)
	}

	var inputFound bool
	for _, in := range inputs {
		if in.Name != cfg.InputName {
			continue
		}
		inputFound = true
		dims := in.Dimensions
		if len(dims) != 2 || (dims[1] != model.NumFeatures && dims[1] > 0) {
			return fmt.Errorf("model input %q has shape %v, want [N,%d]", in.Name, dims, model.NumFeatures)
		}
	}
	if !inputFound {
		return fmt.Errorf("model has no input named %q (inputs: %s)", cfg.InputName, names(inputs))
	}

	for _, out := range outputs {
		if out.Name == cfg.OutputName {
			return nil
		}
	}
	return fmt.Errorf("model has no output named %q (outputs: %s)", cfg.OutputName, names(outputs))
}

func names(infos []ort.InputOutputInfo) string {
	out := make([]string, len(infos))
	for i, info := range infos {
		out[i] = info.Name
	}
	return strings.Join(out, ", ")
}

func resolveSharedLibraryPath(modelDir string) string {
	if env := strings.TrimSpace(os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH")); env != "" {
		return env
	}

	libNames := []string{
		"libonnxruntime.so",
		"onnxruntime.so",
		"libonnxruntime.dylib",
		"onnxruntime.dll",
	}
	dirs := []string{
		modelDir,
		filepath.Join(modelDir, "lib"),
		".",
		"/usr/local/lib",
		"/usr/lib",
		"/opt/homebrew/lib",
	}

	for _, dir := range dirs {
		for _, name := range libNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}
	}
	return ""
}
