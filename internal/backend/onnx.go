package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/owulveryck/onnx-go"
	"github.com/owulveryck/onnx-go/backend/x/gorgonnx"
	"gorgonia.org/tensor"

	"ednaapi/internal/model"
)

// ONNX runs an in-process classifier exported to ONNX. The model takes a
// (1, 4^k) k-mer frequency vector and emits one score per label; labels come
// from a labels.json file next to the model.
type ONNX struct {
	modelPath  string
	labelsPath string

	once    sync.Once
	loadErr error
	raw     []byte
	labels  []string

	// The computation graph is rebuilt per call; onnx-go graphs are not
	// safe for concurrent runs.
	mu sync.Mutex
}

// NewONNX creates the ONNX backend. labelsPath may be empty, in which case
// labels.json beside the model file is used.
func NewONNX(modelPath, labelsPath string) *ONNX {
	if labelsPath == "" && modelPath != "" {
		labelsPath = filepath.Join(filepath.Dir(modelPath), "labels.json")
	}
	return &ONNX{modelPath: modelPath, labelsPath: labelsPath}
}

func (o *ONNX) Name() string   { return "onnx" }
func (o *ONNX) Source() string { return SourceONNX }

// Available reports whether the model bytes and label list loaded.
func (o *ONNX) Available() bool {
	o.load()
	return o.loadErr == nil
}

func (o *ONNX) load() {
	o.once.Do(func() {
		if o.modelPath == "" {
			o.loadErr = fmt.Errorf("onnx model path not configured")
			return
		}
		raw, err := os.ReadFile(o.modelPath)
		if err != nil {
			o.loadErr = fmt.Errorf("read onnx model: %w", err)
			log.Printf("onnx backend unavailable: %v", o.loadErr)
			return
		}
		labels, err := loadLabels(o.labelsPath)
		if err != nil {
			o.loadErr = fmt.Errorf("read onnx labels: %w", err)
			log.Printf("onnx backend unavailable: %v", o.loadErr)
			return
		}
		o.raw = raw
		o.labels = labels
		log.Printf("onnx model loaded from %s (%d labels)", o.modelPath, len(labels))
	})
}

func loadLabels(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var labels []string
	if err := json.Unmarshal(b, &labels); err != nil {
		return nil, err
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("labels file %s is empty", path)
	}
	return labels, nil
}

// Predict runs the model once per sequence and takes the argmax of the
// softmaxed score vector.
func (o *ONNX) Predict(ctx context.Context, records []model.SequenceRecord) ([]RawPrediction, error) {
	o.load()
	if o.loadErr != nil {
		return nil, o.loadErr
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]RawPrediction, 0, len(records))
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		scores, err := o.run(rec.Sequence)
		if err != nil {
			return nil, fmt.Errorf("onnx inference for %s: %w", rec.SequenceID, err)
		}
		label, conf := argmaxSoftmax(scores, o.labels)
		out = append(out, RawPrediction{
			SequenceID: rec.SequenceID,
			Label:      label,
			Confidence: conf,
		})
	}
	return out, nil
}

func (o *ONNX) run(seq string) ([]float64, error) {
	vec := KmerVector(seq, KmerSize)

	g := gorgonnx.NewGraph()
	m := onnx.NewModel(g)
	if err := m.UnmarshalBinary(o.raw); err != nil {
		return nil, fmt.Errorf("decode model graph: %w", err)
	}

	input := tensor.New(
		tensor.WithShape(1, len(vec)),
		tensor.Of(tensor.Float32),
		tensor.WithBacking(vec),
	)
	if err := m.SetInput(0, input); err != nil {
		return nil, fmt.Errorf("set model input: %w", err)
	}
	if err := g.Run(); err != nil {
		return nil, fmt.Errorf("run model graph: %w", err)
	}
	outputs, err := m.GetOutputTensors()
	if err != nil {
		return nil, fmt.Errorf("read model output: %w", err)
	}
	if len(outputs) == 0 {
		return nil, fmt.Errorf("model produced no output tensors")
	}
	return tensorScores(outputs[0])
}

func tensorScores(t tensor.Tensor) ([]float64, error) {
	switch data := t.Data().(type) {
	case []float32:
		scores := make([]float64, len(data))
		for i, v := range data {
			scores[i] = float64(v)
		}
		return scores, nil
	case []float64:
		return data, nil
	case float32:
		return []float64{float64(data)}, nil
	case float64:
		return []float64{data}, nil
	default:
		return nil, fmt.Errorf("unsupported output tensor type %T", data)
	}
}

// argmaxSoftmax maps raw scores to a label and probability. Scores that
// already look like a probability distribution are used as-is; otherwise a
// softmax is applied.
func argmaxSoftmax(scores []float64, labels []string) (string, float64) {
	if len(scores) == 0 {
		return UnknownSpecies, 0
	}

	sum, isDist := 0.0, true
	for _, s := range scores {
		if s < 0 || s > 1 {
			isDist = false
			break
		}
		sum += s
	}
	probs := scores
	if !isDist || math.Abs(sum-1) > 0.01 {
		probs = softmax(scores)
	}

	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}
	label := fmt.Sprintf("class_%d", best)
	if best < len(labels) && strings.TrimSpace(labels[best]) != "" {
		label = labels[best]
	}
	return label, probs[best]
}

func softmax(scores []float64) []float64 {
	max := scores[0]
	for _, s := range scores[1:] {
		if s > max {
			max = s
		}
	}
	var sum float64
	out := make([]float64, len(scores))
	for i, s := range scores {
		out[i] = math.Exp(s - max)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
