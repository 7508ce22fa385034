package preprocessing

import (
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/auctionml/core/parallel"
	"github.com/YuminosukeSato/auctionml/dataset"
	"github.com/YuminosukeSato/auctionml/pkg/errors"
)

// StdEpsilon は標準偏差の下限値。定数列でゼロ除算が起きないようにする
const StdEpsilon = 1e-8

// InterceptName は切片列の特徴量名
const InterceptName = "intercept"

// UnknownCategoryPolicy は推論時に未知のカテゴリ水準が来た場合の扱い
type UnknownCategoryPolicy int

const (
	// UnknownIgnore は未知の水準を全ゼロのone-hotとして符号化する（デフォルト）
	UnknownIgnore UnknownCategoryPolicy = iota
	// UnknownReject は未知の水準を SchemaError として拒否する
	UnknownReject
)

// String は設定ファイルで使う名前を返す
func (p UnknownCategoryPolicy) String() string {
	if p == UnknownReject {
		return "reject"
	}
	return "ignore"
}

// ParseUnknownCategoryPolicy は "ignore" / "reject" をポリシーに変換する
func ParseUnknownCategoryPolicy(s string) (UnknownCategoryPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ignore":
		return UnknownIgnore, nil
	case "reject":
		return UnknownReject, nil
	default:
		return UnknownIgnore, errors.NewValidationError("unknown_category", "must be 'ignore' or 'reject'", s)
	}
}

// NumericStats は数値特徴量1列分の正規化統計
type NumericStats struct {
	Name string
	Mean float64
	Std  float64
}

// CategoricalVocab はカテゴリ特徴量1列分の語彙（ソート済み・重複なし）と最頻値
type CategoricalVocab struct {
	Name   string
	Levels []string
	Mode   string
}

// Encoder は生のレコードを固定長の特徴ベクトルへ写像する
//
// ベクトルのレイアウトは Encoder の生存期間中固定:
//
//	[intercept=1, 正規化された数値特徴量（スキーマ順）, 各カテゴリ特徴量の各水準のone-hot（スキーマ順）]
//
// 学習後は不変であり、複数のゴルーチンから同時に Encode してよい。
type Encoder struct {
	Schema      dataset.Schema
	Numeric     []NumericStats
	Categorical []CategoricalVocab
	Policy      UnknownCategoryPolicy

	// Fit 中のみ使用する語彙用の追加行
	vocabRows []dataset.Row
}

// EncoderOption は Fit の挙動を変更する
type EncoderOption func(*Encoder)

// WithUnknownCategoryPolicy は未知カテゴリの扱いを設定する
func WithUnknownCategoryPolicy(p UnknownCategoryPolicy) EncoderOption {
	return func(e *Encoder) {
		e.Policy = p
	}
}

// WithVocabularyFrom は rows に現れるカテゴリ水準も語彙に含める
// 正規化統計と最頻値は学習行のみから計算される。
// ホールドアウト行の水準を UnknownReject で拒否しないために使う。
func WithVocabularyFrom(rows []dataset.Row) EncoderOption {
	return func(e *Encoder) {
		e.vocabRows = rows
	}
}

// Fit は学習行から正規化統計と語彙を計算する
//
// 数値が非有限、またはカテゴリが空の行は統計から除外される。
// 有効な行が1つもない場合は ErrEmptyData を返す。
//
// 使用例:
//
//	enc, err := preprocessing.Fit(dataset.DiamondAuction(), rows)
//	vec, err := enc.Encode(record)
func Fit(schema dataset.Schema, rows []dataset.Row, opts ...EncoderOption) (*Encoder, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}

	valid := make([]dataset.Row, 0, len(rows))
	for _, r := range rows {
		if featuresUsable(schema, r) {
			valid = append(valid, r)
		}
	}
	if len(valid) == 0 {
		return nil, errors.NewModelError("Encoder.Fit", "no usable rows", errors.ErrEmptyData)
	}

	enc := &Encoder{Schema: schema}
	for _, opt := range opts {
		opt(enc)
	}

	values := make([]float64, len(valid))
	for _, f := range schema.Numeric {
		for i, r := range valid {
			values[i] = r.Numeric[f.Name]
		}
		mean, std := stat.PopMeanStdDev(values, nil)
		if std < StdEpsilon || math.IsNaN(std) {
			std = StdEpsilon
		}
		enc.Numeric = append(enc.Numeric, NumericStats{Name: f.Name, Mean: mean, Std: std})
	}

	for _, name := range schema.Categorical {
		counts := make(map[string]int)
		for _, r := range valid {
			counts[r.Categorical[name]]++
		}
		for _, r := range enc.vocabRows {
			level := r.Categorical[name]
			if _, ok := counts[level]; !ok && level != "" {
				counts[level] = 0
			}
		}
		levels := make([]string, 0, len(counts))
		for level := range counts {
			levels = append(levels, level)
		}
		sort.Strings(levels)

		// 同数の場合は辞書順で先の水準を採用する
		// 追加行のみの水準は件数0なので最頻値にならない
		mode := levels[0]
		for _, level := range levels[1:] {
			if counts[level] > counts[mode] {
				mode = level
			}
		}
		enc.Categorical = append(enc.Categorical, CategoricalVocab{Name: name, Levels: levels, Mode: mode})
	}
	enc.vocabRows = nil

	return enc, nil
}

func featuresUsable(schema dataset.Schema, r dataset.Row) bool {
	for _, f := range schema.Numeric {
		v, ok := r.Numeric[f.Name]
		if !ok || !errors.IsFinite(v) {
			return false
		}
	}
	for _, c := range schema.Categorical {
		if r.Categorical[c] == "" {
			return false
		}
	}
	return true
}

// Width は特徴ベクトルの長さ（切片を含む）を返す
func (e *Encoder) Width() int {
	w := 1 + len(e.Numeric)
	for _, c := range e.Categorical {
		w += len(c.Levels)
	}
	return w
}

// FeatureNames は各列の名前を返す。one-hot列は "field=level" 形式
func (e *Encoder) FeatureNames() []string {
	names := make([]string, 0, e.Width())
	names = append(names, InterceptName)
	for _, n := range e.Numeric {
		names = append(names, n.Name)
	}
	for _, c := range e.Categorical {
		for _, level := range c.Levels {
			names = append(names, c.Name+"="+level)
		}
	}
	return names
}

// SourceFields は各列がどの生フィールドから来たかを返す（切片は空文字列）
func (e *Encoder) SourceFields() []string {
	fields := make([]string, 0, e.Width())
	fields = append(fields, "")
	for _, n := range e.Numeric {
		fields = append(fields, n.Name)
	}
	for _, c := range e.Categorical {
		for range c.Levels {
			fields = append(fields, c.Name)
		}
	}
	return fields
}

// Vocabulary はカテゴリ特徴量の語彙を返す
func (e *Encoder) Vocabulary(field string) ([]string, bool) {
	for _, c := range e.Categorical {
		if c.Name == field {
			return c.Levels, true
		}
	}
	return nil, false
}

// Mode はカテゴリ特徴量の最頻水準を返す
func (e *Encoder) Mode(field string) (string, bool) {
	for _, c := range e.Categorical {
		if c.Name == field {
			return c.Mode, true
		}
	}
	return "", false
}

// Encode はレコードを特徴ベクトルに変換する
// 同じ Encoder と同じレコードからは常にビット単位で同一のベクトルが得られる
func (e *Encoder) Encode(r dataset.Record) ([]float64, error) {
	dst := make([]float64, e.Width())
	if err := e.encodeInto(r, dst); err != nil {
		return nil, err
	}
	return dst, nil
}

func (e *Encoder) encodeInto(r dataset.Record, dst []float64) error {
	dst[0] = 1
	pos := 1
	for _, n := range e.Numeric {
		v, ok := r.Numeric[n.Name]
		if !ok {
			return errors.NewSchemaError("Encoder.Encode", n.Name, "required numeric field is missing")
		}
		if !errors.IsFinite(v) {
			return errors.NewValueError("Encoder.Encode", "non-finite value for numeric field '"+n.Name+"'")
		}
		dst[pos] = (v - n.Mean) / n.Std
		pos++
	}
	for _, c := range e.Categorical {
		level, ok := r.Categorical[c.Name]
		if !ok || level == "" {
			return errors.NewSchemaError("Encoder.Encode", c.Name, "required categorical field is missing")
		}
		idx := sort.SearchStrings(c.Levels, level)
		found := idx < len(c.Levels) && c.Levels[idx] == level
		if !found && e.Policy == UnknownReject {
			return errors.NewSchemaError("Encoder.Encode", c.Name, "unseen category level '"+level+"'")
		}
		for j := range c.Levels {
			dst[pos+j] = 0
		}
		if found {
			dst[pos+idx] = 1
		}
		pos += len(c.Levels)
	}
	return nil
}

// EncodeRecords は複数レコードを (n × Width) の行列に変換する
// 行数が多い場合は CPU コア数に応じて並列に符号化する
func (e *Encoder) EncodeRecords(records []dataset.Record) (*mat.Dense, error) {
	if len(records) == 0 {
		return nil, errors.NewModelError("Encoder.EncodeRecords", "empty data", errors.ErrEmptyData)
	}
	width := e.Width()
	data := make([]float64, len(records)*width)
	errs := make([]error, len(records))

	parallel.ParallelizeWithThreshold(len(records), parallel.DefaultThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			errs[i] = e.encodeInto(records[i], data[i*width:(i+1)*width])
		}
	})
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return mat.NewDense(len(records), width, data), nil
}

// EncodeRows は学習行の特徴部分を行列に変換する
func (e *Encoder) EncodeRows(rows []dataset.Row) (*mat.Dense, error) {
	records := make([]dataset.Record, len(rows))
	for i, r := range rows {
		records[i] = r.Record()
	}
	return e.EncodeRecords(records)
}
