package model

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"maps"
	"slices"

	"github.com/YuminosukeSato/golinear/pkg/errors"
)

// WeightsVersion is the current ModelWeights format version.
const WeightsVersion = "1"

// ModelWeights はモデルの重みを表す構造体（シリアライゼーション用）
//
// W uses the same feature-major layout as the model text format: for
// feature j and decision function k, W[j*NrW+k].
type ModelWeights struct {
	// ModelType はエスティメータの種類（LogisticRegression, LinearSVC等）
	ModelType string `json:"model_type"`

	// Version はフォーマットのバージョン（互換性チェック用）
	Version string `json:"version"`

	SolverType string    `json:"solver_type"`
	NrClass    int       `json:"nr_class"`
	NrFeature  int       `json:"nr_feature"`
	Labels     []int     `json:"labels,omitempty"`
	Bias       float64   `json:"bias"`
	Rho        float64   `json:"rho,omitempty"`
	W          []float64 `json:"w"`

	// Hyperparameters はエスティメータの GetParams の値
	Hyperparameters map[string]interface{} `json:"hyperparameters,omitempty"`

	// IsFitted はモデルが学習済みかどうか
	IsFitted bool `json:"is_fitted"`

	// Checksum は W の SHA-256（空なら検証しない）
	Checksum string `json:"checksum,omitempty"`
}

// ComputeChecksum returns the hex SHA-256 of the JSON encoding of W.
func (mw *ModelWeights) ComputeChecksum() string {
	data, _ := json.Marshal(mw.W)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// ToJSON はModelWeightsをJSON形式にシリアライズ
func (mw *ModelWeights) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(mw, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal model weights")
	}
	return data, nil
}

// FromJSON はJSON形式からModelWeightsをデシリアライズ
func (mw *ModelWeights) FromJSON(data []byte) error {
	if err := json.Unmarshal(data, mw); err != nil {
		return errors.Wrap(err, "failed to unmarshal model weights")
	}
	return mw.Validate()
}

// Validate はModelWeightsの妥当性を検証
func (mw *ModelWeights) Validate() error {
	if mw.ModelType == "" {
		return errors.NewValidationError("model_type", "is required", mw.ModelType)
	}
	if mw.Version != WeightsVersion {
		return errors.NewValidationError("version", "unsupported weights version", mw.Version)
	}
	if !mw.IsFitted && len(mw.W) > 0 {
		return errors.NewValidationError("w", "unfitted model should not have weights", len(mw.W))
	}
	if mw.IsFitted && len(mw.W) == 0 {
		return errors.NewValidationError("w", "fitted model must have weights", 0)
	}
	if mw.Labels != nil && len(mw.Labels) != mw.NrClass {
		return errors.NewValidationError("labels", "must have nr_class entries", len(mw.Labels))
	}
	if mw.Checksum != "" && mw.Checksum != mw.ComputeChecksum() {
		return errors.NewValidationError("checksum", "weights may be corrupted", mw.Checksum)
	}
	return nil
}

// Clone はModelWeightsのディープコピーを作成
func (mw *ModelWeights) Clone() *ModelWeights {
	clone := *mw
	clone.Labels = slices.Clone(mw.Labels)
	clone.W = slices.Clone(mw.W)
	clone.Hyperparameters = maps.Clone(mw.Hyperparameters)
	return &clone
}
