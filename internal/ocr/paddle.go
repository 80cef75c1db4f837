package ocr

import (
	"bufio"
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	ort "github.com/yalue/onnxruntime_go"
)

// PaddleConfig holds settings for the local PP-OCR style backend built
// from a DB detection model and a CTC recognition model.
type PaddleConfig struct {
	DetModelPath string
	RecModelPath string
	DictPath     string
	NumThreads   int

	// Detection postprocessing.
	DetThreshold float32 // probability threshold for the text mask
	DetMaxSide   int     // detection input is scaled so max side <= this
	MinBoxSize   int     // boxes smaller than this (pixels) are dropped

	// Recognition preprocessing.
	RecImageHeight int
	RecMaxWidth    int

	UseSpaceChar bool
}

// DefaultPaddleConfig returns defaults matching the PP-OCR mobile models.
func DefaultPaddleConfig() PaddleConfig {
	return PaddleConfig{
		DetThreshold:   0.3,
		DetMaxSide:     960,
		MinBoxSize:     3,
		RecImageHeight: 48,
		RecMaxWidth:    320,
		UseSpaceChar:   true,
	}
}

var (
	ortInitOnce sync.Once
	ortInitErr  error
)

// initONNXRuntime initializes the shared ONNX Runtime environment once.
func initONNXRuntime() error {
	ortInitOnce.Do(func() {
		if ort.IsInitialized() {
			return
		}
		if path := sharedLibraryPath(); path != "" {
			ort.SetSharedLibraryPath(path)
		}
		ortInitErr = ort.InitializeEnvironment()
	})
	return ortInitErr
}

// sharedLibraryPath locates the onnxruntime shared library, honoring the
// ONNXRUNTIME_SHARED_LIBRARY_PATH override first.
func sharedLibraryPath() string {
	if env := os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH"); env != "" {
		return env
	}

	var candidates []string
	switch runtime.GOOS {
	case "darwin":
		candidates = []string{
			"/usr/local/lib/libonnxruntime.dylib",
			"/opt/homebrew/lib/libonnxruntime.dylib",
		}
	case "windows":
		candidates = []string{"onnxruntime.dll"}
	default:
		candidates = []string{
			"/usr/local/lib/libonnxruntime.so",
			"/usr/lib/libonnxruntime.so",
			"/opt/onnxruntime/lib/libonnxruntime.so",
		}
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

// PaddleEngine recognizes text with ONNX Runtime: a detection pass finds
// text line regions, a recognition pass decodes each region with greedy
// CTC over a character dictionary.
type PaddleEngine struct {
	cfg  PaddleConfig
	det  *ort.DynamicAdvancedSession
	rec  *ort.DynamicAdvancedSession
	dict []string
}

// NewPaddleEngine loads both models and the dictionary.
func NewPaddleEngine(cfg PaddleConfig) (*PaddleEngine, error) {
	def := DefaultPaddleConfig()
	if cfg.DetThreshold <= 0 {
		cfg.DetThreshold = def.DetThreshold
	}
	if cfg.DetMaxSide <= 0 {
		cfg.DetMaxSide = def.DetMaxSide
	}
	if cfg.MinBoxSize <= 0 {
		cfg.MinBoxSize = def.MinBoxSize
	}
	if cfg.RecImageHeight <= 0 {
		cfg.RecImageHeight = def.RecImageHeight
	}
	if cfg.RecMaxWidth <= 0 {
		cfg.RecMaxWidth = def.RecMaxWidth
	}

	for _, p := range []string{cfg.DetModelPath, cfg.RecModelPath, cfg.DictPath} {
		if p == "" {
			return nil, fmt.Errorf("paddle engine requires det model, rec model and dict paths")
		}
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("model file not found: %s", filepath.Clean(p))
		}
	}

	if err := initONNXRuntime(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX Runtime: %w", err)
	}

	dict, err := loadDictionary(cfg.DictPath, cfg.UseSpaceChar)
	if err != nil {
		return nil, fmt.Errorf("failed to load dictionary: %w", err)
	}

	det, err := newSession(cfg.DetModelPath, cfg.NumThreads)
	if err != nil {
		return nil, fmt.Errorf("init detector: %w", err)
	}
	rec, err := newSession(cfg.RecModelPath, cfg.NumThreads)
	if err != nil {
		_ = det.Destroy()
		return nil, fmt.Errorf("init recognizer: %w", err)
	}

	return &PaddleEngine{cfg: cfg, det: det, rec: rec, dict: dict}, nil
}

// newSession creates a dynamic session using the model's own I/O names.
func newSession(modelPath string, numThreads int) (*ort.DynamicAdvancedSession, error) {
	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read model metadata: %w", err)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return nil, fmt.Errorf("model has no inputs or outputs: %s", modelPath)
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer func() { _ = opts.Destroy() }()

	if numThreads > 0 {
		if err := opts.SetIntraOpNumThreads(numThreads); err != nil {
			return nil, fmt.Errorf("failed to set thread count: %w", err)
		}
	}

	return ort.NewDynamicAdvancedSession(modelPath,
		[]string{inputs[0].Name}, []string{outputs[0].Name}, opts)
}

func loadDictionary(path string, useSpace bool) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // G304: configured dictionary path
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var dict []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		dict = append(dict, strings.TrimRight(scanner.Text(), "\r\n"))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(dict) == 0 {
		return nil, fmt.Errorf("dictionary is empty: %s", path)
	}
	if useSpace {
		dict = append(dict, " ")
	}
	return dict, nil
}

// Recognize runs detection and per-region recognition, returning the
// recognized lines top-to-bottom joined by newlines.
func (e *PaddleEngine) Recognize(ctx context.Context, img image.Image) (string, error) {
	boxes, err := e.detect(img)
	if err != nil {
		return "", err
	}
	if len(boxes) == 0 {
		return "", nil
	}

	sort.SliceStable(boxes, func(i, j int) bool {
		if boxes[i].Min.Y != boxes[j].Min.Y {
			return boxes[i].Min.Y < boxes[j].Min.Y
		}
		return boxes[i].Min.X < boxes[j].Min.X
	})

	var lines []string
	for _, box := range boxes {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		crop := imaging.Crop(img, box)
		text, err := e.recognizeRegion(crop)
		if err != nil {
			return "", err
		}
		if text != "" {
			lines = append(lines, text)
		}
	}
	return strings.Join(lines, "\n"), nil
}

// Close releases both ONNX sessions.
func (e *PaddleEngine) Close() error {
	var firstErr error
	if e.det != nil {
		if err := e.det.Destroy(); err != nil {
			firstErr = err
		}
		e.det = nil
	}
	if e.rec != nil {
		if err := e.rec.Destroy(); err != nil && firstErr == nil {
			firstErr = err
		}
		e.rec = nil
	}
	return firstErr
}

// detect runs the DB detection model and extracts axis-aligned text
// region boxes in original image coordinates.
func (e *PaddleEngine) detect(img image.Image) ([]image.Rectangle, error) {
	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if srcW == 0 || srcH == 0 {
		return nil, nil
	}

	// Scale so the longest side fits DetMaxSide and both sides are
	// multiples of 32, as the DB model expects.
	scale := 1.0
	longest := srcW
	if srcH > longest {
		longest = srcH
	}
	if longest > e.cfg.DetMaxSide {
		scale = float64(e.cfg.DetMaxSide) / float64(longest)
	}
	dstW := roundTo32(float64(srcW) * scale)
	dstH := roundTo32(float64(srcH) * scale)
	resized := imaging.Resize(img, dstW, dstH, imaging.Linear)

	data := imageToCHW(resized, detMean, detStd)
	input, err := ort.NewTensor(ort.NewShape(1, 3, int64(dstH), int64(dstW)), data)
	if err != nil {
		return nil, fmt.Errorf("failed to create detection tensor: %w", err)
	}
	defer func() { _ = input.Destroy() }()

	outputs := []ort.Value{nil}
	if err := e.det.Run([]ort.Value{input}, outputs); err != nil {
		return nil, fmt.Errorf("detection inference failed: %w", err)
	}
	out, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected detection output type")
	}
	defer func() { _ = out.Destroy() }()

	prob := out.GetData()
	if len(prob) < dstW*dstH {
		return nil, fmt.Errorf("detection output too small: %d < %d", len(prob), dstW*dstH)
	}

	mask := make([]bool, dstW*dstH)
	for i := range mask {
		mask[i] = prob[i] > e.cfg.DetThreshold
	}

	boxes := connectedRegions(mask, dstW, dstH, e.cfg.MinBoxSize)

	// Map back into original image coordinates.
	sx := float64(srcW) / float64(dstW)
	sy := float64(srcH) / float64(dstH)
	mapped := make([]image.Rectangle, 0, len(boxes))
	for _, b := range boxes {
		r := image.Rect(
			int(float64(b.Min.X)*sx), int(float64(b.Min.Y)*sy),
			int(float64(b.Max.X)*sx)+1, int(float64(b.Max.Y)*sy)+1,
		).Intersect(bounds)
		if !r.Empty() {
			mapped = append(mapped, r)
		}
	}
	return mapped, nil
}

// recognizeRegion decodes the text of a single cropped line image.
func (e *PaddleEngine) recognizeRegion(crop image.Image) (string, error) {
	bounds := crop.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return "", nil
	}

	h := e.cfg.RecImageHeight
	w := int(float64(bounds.Dx()) * float64(h) / float64(bounds.Dy()))
	if w < 8 {
		w = 8
	}
	if w > e.cfg.RecMaxWidth {
		w = e.cfg.RecMaxWidth
	}
	resized := imaging.Resize(crop, w, h, imaging.Linear)

	data := imageToCHW(resized, recMean, recStd)
	input, err := ort.NewTensor(ort.NewShape(1, 3, int64(h), int64(w)), data)
	if err != nil {
		return "", fmt.Errorf("failed to create recognition tensor: %w", err)
	}
	defer func() { _ = input.Destroy() }()

	outputs := []ort.Value{nil}
	if err := e.rec.Run([]ort.Value{input}, outputs); err != nil {
		return "", fmt.Errorf("recognition inference failed: %w", err)
	}
	out, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return "", fmt.Errorf("unexpected recognition output type")
	}
	defer func() { _ = out.Destroy() }()

	shape := out.GetShape()
	if len(shape) != 3 {
		return "", fmt.Errorf("unexpected recognition output rank %d", len(shape))
	}
	steps, classes := int(shape[1]), int(shape[2])
	return ctcGreedyDecode(out.GetData(), steps, classes, e.dict), nil
}

var (
	// ImageNet statistics used by the DB detection models.
	detMean = [3]float32{0.485, 0.456, 0.406}
	detStd  = [3]float32{0.229, 0.224, 0.225}

	// Recognition models normalize to [-1, 1].
	recMean = [3]float32{0.5, 0.5, 0.5}
	recStd  = [3]float32{0.5, 0.5, 0.5}
)

// imageToCHW converts an image into normalized CHW float32 layout.
func imageToCHW(img image.Image, mean, std [3]float32) []float32 {
	nrgba := imaging.Clone(img)
	bounds := nrgba.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	data := make([]float32, 3*w*h)
	plane := w * h

	for y := 0; y < h; y++ {
		row := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+w*4]
		for x := 0; x < w; x++ {
			idx := y*w + x
			data[idx] = (float32(row[x*4])/255.0 - mean[0]) / std[0]
			data[plane+idx] = (float32(row[x*4+1])/255.0 - mean[1]) / std[1]
			data[2*plane+idx] = (float32(row[x*4+2])/255.0 - mean[2]) / std[2]
		}
	}
	return data
}

func roundTo32(v float64) int {
	n := int(v+31) / 32 * 32
	if n < 32 {
		n = 32
	}
	return n
}
