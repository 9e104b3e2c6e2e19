// Package forest loads a serialized decision-tree ensemble and runs inference on it.
package forest

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/kirillkom/social-support-ai/internal/core/domain"
)

// Artifact is the on-disk model format.
type Artifact struct {
	Version            string    `json:"version"`
	FeatureNames       []string  `json:"feature_names"`
	FeatureImportances []float64 `json:"feature_importances"`
	Trees              []Tree    `json:"trees"`
}

type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Node is a split when Leaf is false, otherwise Value holds the class-1 probability.
type Node struct {
	Leaf      bool    `json:"leaf,omitempty"`
	Value     float64 `json:"value,omitempty"`
	Feature   int     `json:"feature,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
	Left      int     `json:"left,omitempty"`
	Right     int     `json:"right,omitempty"`
}

// Model is an immutable, validated ensemble safe for concurrent use.
type Model struct {
	version     string
	importances [domain.FeatureCount]float64
	trees       []Tree
}

func LoadFile(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, domain.WrapError(domain.ErrModelUnavailable, "load model", err)
	}
	defer f.Close()
	return Load(f)
}

func Load(r io.Reader) (*Model, error) {
	var artifact Artifact
	if err := json.NewDecoder(r).Decode(&artifact); err != nil {
		return nil, domain.WrapError(domain.ErrModelUnavailable, "decode model", err)
	}
	return New(artifact)
}

// New validates the artifact against the feature contract.
func New(artifact Artifact) (*Model, error) {
	if err := validate(artifact); err != nil {
		return nil, domain.WrapError(domain.ErrModelUnavailable, "validate model", err)
	}
	m := &Model{version: artifact.Version, trees: artifact.Trees}
	copy(m.importances[:], artifact.FeatureImportances)
	return m, nil
}

func validate(a Artifact) error {
	if len(a.FeatureNames) != domain.FeatureCount {
		return fmt.Errorf("expected %d feature names, got %d", domain.FeatureCount, len(a.FeatureNames))
	}
	for i, name := range a.FeatureNames {
		if name != domain.FeatureNames[i] {
			return fmt.Errorf("feature %d is %q, expected %q", i, name, domain.FeatureNames[i])
		}
	}
	if len(a.FeatureImportances) != domain.FeatureCount {
		return fmt.Errorf("expected %d importances, got %d", domain.FeatureCount, len(a.FeatureImportances))
	}
	for i, v := range a.FeatureImportances {
		if math.IsNaN(v) || v < 0 {
			return fmt.Errorf("importance %d is invalid: %v", i, v)
		}
	}
	if len(a.Trees) == 0 {
		return fmt.Errorf("model has no trees")
	}
	for t, tree := range a.Trees {
		if err := validateTree(tree); err != nil {
			return fmt.Errorf("tree %d: %w", t, err)
		}
	}
	return nil
}

// validateTree requires children to sit after their parent, which rules out cycles.
func validateTree(tree Tree) error {
	if len(tree.Nodes) == 0 {
		return fmt.Errorf("empty tree")
	}
	for i, n := range tree.Nodes {
		if n.Leaf {
			if math.IsNaN(n.Value) || n.Value < 0 || n.Value > 1 {
				return fmt.Errorf("node %d: leaf probability %v out of range", i, n.Value)
			}
			continue
		}
		if n.Feature < 0 || n.Feature >= domain.FeatureCount {
			return fmt.Errorf("node %d: feature index %d out of range", i, n.Feature)
		}
		if math.IsNaN(n.Threshold) {
			return fmt.Errorf("node %d: threshold is NaN", i)
		}
		for _, child := range []int{n.Left, n.Right} {
			if child <= i || child >= len(tree.Nodes) {
				return fmt.Errorf("node %d: child index %d invalid", i, child)
			}
		}
	}
	return nil
}

// Predict averages leaf probabilities across trees; label 1 requires strictly more than half.
func (m *Model) Predict(input [domain.FeatureCount]float64) (int, float64) {
	var sum float64
	for _, tree := range m.trees {
		sum += tree.score(input)
	}
	probability := sum / float64(len(m.trees))
	if probability > 0.5 {
		return 1, probability
	}
	return 0, probability
}

func (t Tree) score(input [domain.FeatureCount]float64) float64 {
	idx := 0
	for {
		n := t.Nodes[idx]
		if n.Leaf {
			return n.Value
		}
		if input[n.Feature] <= n.Threshold {
			idx = n.Left
		} else {
			idx = n.Right
		}
	}
}

func (m *Model) FeatureImportances() [domain.FeatureCount]float64 {
	return m.importances
}

func (m *Model) Version() string {
	return m.version
}
