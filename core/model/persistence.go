package model

import (
	"bufio"
	"io"
	"os"

	"github.com/YuminosukeSato/golinear/pkg/errors"
)

// Encoder はテキスト形式で自身を書き出せるモデル
type Encoder interface {
	Encode(w io.Writer) error
}

// SaveToFile はモデルをファイルに保存する
//
// パラメータ:
//   - filename: 保存先のファイルパス
//   - m: 保存するモデル
//
// 戻り値:
//   - error: 保存に失敗した場合のエラー
//
// 使用例:
//
//	m, _ := linear.Train(prob, param)
//	err := model.SaveToFile("heart_scale.model", m)
func SaveToFile(filename string, m Encoder) (err error) {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", filename)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "failed to close %s", filename)
		}
	}()

	return SaveToWriter(file, m)
}

// SaveToWriter はモデルをバッファ付きで io.Writer に書き出す
func SaveToWriter(w io.Writer, m Encoder) error {
	bw := bufio.NewWriter(w)
	if err := m.Encode(bw); err != nil {
		return errors.Wrap(err, "failed to encode model")
	}
	if err := bw.Flush(); err != nil {
		return errors.Wrap(err, "failed to flush model")
	}
	return nil
}

// LoadFromFile はファイルを開いて decode に渡す
//
// 使用例:
//
//	m, err := model.LoadFromFile("heart_scale.model", linear.DecodeModel)
func LoadFromFile[T any](filename string, decode func(io.Reader) (T, error)) (T, error) {
	var zero T
	file, err := os.Open(filename)
	if err != nil {
		return zero, errors.Wrapf(err, "failed to open %s", filename)
	}
	defer file.Close()

	m, err := decode(bufio.NewReader(file))
	if err != nil {
		return zero, errors.NewModelError("LoadFromFile", "cannot decode "+filename, err)
	}
	return m, nil
}
